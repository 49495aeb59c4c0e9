package shipper

import (
	"context"
	"errors"

	"xdao.co/logship/frame"
)

// FallbackSink delivers each record to the first sink that accepts it.
//
// Sink order is the slice order; callers MUST supply a fixed order so the
// delivery strategy stays explicit and deterministic. Per-record frame
// ordering is preserved: a record's frames go to exactly one sink.
type FallbackSink struct {
	Sinks []Sink
}

func (f FallbackSink) Ship(ctx context.Context, frames []frame.Frame) error {
	if len(f.Sinks) == 0 {
		return errors.New("shipper: FallbackSink has no sinks")
	}
	var firstErr error
	for _, s := range f.Sinks {
		err := s.Ship(ctx, frames)
		if err == nil {
			return nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f FallbackSink) Close() error { return closeAll(f.Sinks) }

// FanoutSink delivers each record to every sink; any failure fails the
// record. Sinks are attempted in order even after a failure so healthy sinks
// still receive the record.
type FanoutSink struct {
	Sinks []Sink
}

func (f FanoutSink) Ship(ctx context.Context, frames []frame.Frame) error {
	if len(f.Sinks) == 0 {
		return errors.New("shipper: FanoutSink has no sinks")
	}
	var firstErr error
	for _, s := range f.Sinks {
		if err := s.Ship(ctx, frames); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f FanoutSink) Close() error { return closeAll(f.Sinks) }

func closeAll(sinks []Sink) error {
	var firstErr error
	for i := len(sinks) - 1; i >= 0; i-- {
		if err := sinks[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
