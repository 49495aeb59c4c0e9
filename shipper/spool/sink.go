package spool

import (
	"context"

	"xdao.co/logship/frame"
	"xdao.co/logship/shipper"
)

// Sink spools each shipped record after verifying its frame sequence and
// digest. Put is idempotent, so re-shipping the same record is harmless.
type Sink struct {
	spool *Spool
}

var _ shipper.Sink = (*Sink)(nil)

// NewSink opens a spool-backed sink rooted at dir.
func NewSink(dir string) (*Sink, error) {
	sp, err := New(dir)
	if err != nil {
		return nil, err
	}
	return &Sink{spool: sp}, nil
}

// SinkFor wraps an existing spool.
func SinkFor(sp *Spool) *Sink { return &Sink{spool: sp} }

func (s *Sink) Ship(ctx context.Context, frames []frame.Frame) error {
	_ = ctx
	record, err := frame.Reassemble(frames)
	if err != nil {
		return err
	}
	_, err = s.spool.Put(record)
	return err
}

func (s *Sink) Close() error { return nil }

// Spool exposes the underlying store for drains.
func (s *Sink) Spool() *Spool { return s.spool }
