package reservoir

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Run executes the whole pipeline for one request: load, normalize, analyse gaps,
// interpolate, resample and export. It either returns a complete report or the
// first error; nothing is kept between runs. A cancelled context aborts the run
// between stages.
func Run(ctx context.Context, req Request, now time.Time) (*Report, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	freq, err := ParseFrequency(req.Frequency)
	if err != nil {
		return nil, err
	}

	raw, err := Load(req.Filename, req.Content)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	frame, err := Normalize(raw)
	if err != nil {
		return nil, err
	}
	original, err := frame.Series(LevelColumn)
	if err != nil {
		return nil, err
	}

	cleaned := Interpolate(ValidSpan(original))
	resampled, err := Resample(cleaned, freq)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	artifact, err := Export(resampled, now)
	if err != nil {
		return nil, err
	}

	return &Report{
		RunID:         uuid.NewString(),
		Filename:      req.Filename,
		Frequency:     freq,
		Frame:         frame,
		MissingCounts: MissingCounts(frame),
		Summaries:     Describe(frame),
		Histogram:     NewHistogram(original.Values(), HistogramBins),
		NullMask:      NullMask(original),
		Original:      original,
		Cleaned:       cleaned,
		Resampled:     resampled,
		Artifact:      artifact,
	}, nil
}
