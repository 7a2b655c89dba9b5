package batch

import (
	"path/filepath"
	"strings"

	"github.com/Adam-226/m4a-mp3/domain/model"
	pkgerrors "github.com/Adam-226/m4a-mp3/pkg/errors"
)

// outputPath computes the deterministic output path for one input file.
// With no override the output sits next to its input with the extension
// swapped. With an override the input's subdirectory structure relative to
// inputRoot is mirrored beneath outputDir.
func outputPath(input, inputRoot, outputDir, ext string) (string, error) {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	if outputDir == "" {
		return filepath.Join(filepath.Dir(input), stem+ext), nil
	}

	rel, err := filepath.Rel(inputRoot, filepath.Dir(input))
	if err != nil {
		return "", err
	}
	return filepath.Join(outputDir, rel, stem+ext), nil
}

// plan maps every discovered input to a ConversionRequest, rejecting the
// batch up front when two distinct inputs claim the same output path.
// Mapping is deterministic, so collisions are always detectable before any
// subprocess is spawned.
func plan(files []string, opts model.BatchOptions, params model.EncodingParameters) ([]model.ConversionRequest, error) {
	requests := make([]model.ConversionRequest, 0, len(files))
	owners := make(map[string]string, len(files))

	for _, input := range files {
		out, err := outputPath(input, opts.InputDir, opts.OutputDir, params.Extension)
		if err != nil {
			return nil, err
		}
		if owner, taken := owners[out]; taken {
			return nil, pkgerrors.NewOutputCollision(out, owner, input)
		}
		owners[out] = input

		requests = append(requests, model.ConversionRequest{
			InputPath:  input,
			OutputPath: out,
			Format:     opts.Format,
			Quality:    opts.Quality,
		})
	}
	return requests, nil
}
