package model

import (
	pkgerrors "github.com/Adam-226/m4a-mp3/pkg/errors"
)

// Format represents supported output containers
type Format string

const (
	FormatMP3 Format = "mp3"
	FormatWAV Format = "wav"
)

// Quality represents named quality tiers for lossy encoding
type Quality string

const (
	QualityHigh   Quality = "high"
	QualityMedium Quality = "medium"
	QualityLow    Quality = "low"
)

// SourceExtension is the input extension the batch converts from
const SourceExtension = ".m4a"

// ParseFormat coerces a user-supplied string into a Format
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatMP3, FormatWAV:
		return Format(s), nil
	default:
		return "", pkgerrors.NewUnsupportedFormat(s)
	}
}

// ParseQuality coerces a user-supplied string into a Quality
func ParseQuality(s string) (Quality, error) {
	switch Quality(s) {
	case QualityHigh, QualityMedium, QualityLow:
		return Quality(s), nil
	default:
		return "", pkgerrors.NewUnsupportedQuality(s)
	}
}

// EncodingParameters is the resolved transcoder parameter set for one run.
// BitrateKbps is zero for uncompressed output.
type EncodingParameters struct {
	CodecName   string
	BitrateKbps int
	Extension   string
}

// mp3Bitrates maps quality tiers to fixed CBR bitrates
var mp3Bitrates = map[Quality]int{
	QualityHigh:   320,
	QualityMedium: 192,
	QualityLow:    128,
}

// ResolveParameters maps (format, quality) to concrete encoding parameters.
// Quality is only meaningful for MP3; WAV ignores it.
func ResolveParameters(format Format, quality Quality) (EncodingParameters, error) {
	switch format {
	case FormatMP3:
		kbps, ok := mp3Bitrates[quality]
		if !ok {
			return EncodingParameters{}, pkgerrors.NewUnsupportedQuality(string(quality))
		}
		return EncodingParameters{
			CodecName:   "libmp3lame",
			BitrateKbps: kbps,
			Extension:   ".mp3",
		}, nil

	case FormatWAV:
		return EncodingParameters{
			CodecName: "pcm_s16le",
			Extension: ".wav",
		}, nil

	default:
		return EncodingParameters{}, pkgerrors.NewUnsupportedFormat(string(format))
	}
}

// Outcome classifies a single conversion attempt
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// ConversionRequest describes one file to convert. Immutable once built.
type ConversionRequest struct {
	InputPath  string
	OutputPath string
	Format     Format
	Quality    Quality
}

// ConversionResult is the terminal record for one request
type ConversionResult struct {
	Request     ConversionRequest
	Outcome     Outcome
	ErrorDetail string
}

// Failure pairs a failed input path with its diagnostic detail
type Failure struct {
	Path   string
	Detail string
}

// BatchSummary aggregates per-file results for one run.
// Succeeded+Failed == TotalFound holds after every completed batch.
type BatchSummary struct {
	TotalFound int
	Succeeded  int
	Failed     int
	Failures   []Failure
}

// Record folds one result into the summary
func (s *BatchSummary) Record(res ConversionResult) {
	switch res.Outcome {
	case OutcomeSuccess:
		s.Succeeded++
	default:
		s.Failed++
		s.Failures = append(s.Failures, Failure{
			Path:   res.Request.InputPath,
			Detail: res.ErrorDetail,
		})
	}
}

// Processed reports how many results have been recorded so far
func (s *BatchSummary) Processed() int {
	return s.Succeeded + s.Failed
}
