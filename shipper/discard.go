package shipper

import (
	"context"

	"xdao.co/logship/frame"
)

// DiscardSink validates and drops every record. Useful for tests and for
// measuring the wrap path without a real transport.
type DiscardSink struct{}

func (DiscardSink) Ship(ctx context.Context, frames []frame.Frame) error {
	_ = ctx
	// Still enforce the frame contract so misuse surfaces even in tests.
	_, err := frame.Reassemble(frames)
	return err
}

func (DiscardSink) Close() error { return nil }
