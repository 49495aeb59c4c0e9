// Package shipper composes mask validation, digesting and bounded framing
// into a log-shipping pipeline: a record is wrapped into frames no larger
// than the sink's limit, digest-tagged, and delivered to the sink in
// sequence order.
package shipper

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"xdao.co/logship/frame"
)

// Sink receives the frames of one record.
//
// Contract:
//   - Ship is called once per record with that record's complete frame
//     sequence, already in SequenceIndex order; the sink must preserve that
//     order when writing or transmitting.
//   - Frames from different records may arrive from concurrent Ship calls;
//     no ordering is promised across records.
//   - Ship MUST NOT retain the frames' payload slices after returning.
type Sink interface {
	Ship(ctx context.Context, frames []frame.Frame) error
	Close() error
}

// Shipper wraps records and delivers them to a Sink.
//
// A Shipper is safe for concurrent use: each Ship call operates on its own
// record and frames, and delivery is synchronous, so frames of one record
// are never interleaved by the Shipper itself.
type Shipper struct {
	sink     Sink
	maxFrame int
	textSafe bool
	log      logrus.FieldLogger
}

// Option configures a Shipper.
type Option func(*Shipper)

// WithTextSplitting makes the Shipper split records at UTF-8 rune
// boundaries (frame.WrapText) instead of raw byte boundaries.
func WithTextSplitting() Option {
	return func(s *Shipper) { s.textSafe = true }
}

// WithLogger attaches a logger for per-record delivery diagnostics.
// The library stays silent without one.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Shipper) { s.log = log }
}

// New validates the frame limit up front: a non-positive maxFrameSize is a
// configuration bug and fails pipeline setup rather than every record.
func New(sink Sink, maxFrameSize int, opts ...Option) (*Shipper, error) {
	if sink == nil {
		return nil, errors.New("shipper: nil sink")
	}
	if maxFrameSize <= 0 {
		return nil, fmt.Errorf("%w: %d", frame.ErrInvalidFrameSize, maxFrameSize)
	}
	s := &Shipper{sink: sink, maxFrame: maxFrameSize}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// MaxFrameSize returns the configured per-frame byte limit.
func (s *Shipper) MaxFrameSize() int { return s.maxFrame }

// Ship wraps record and delivers its frames. No content is ever dropped: an
// oversized record becomes multiple frames, each within the limit, with a
// digest of the whole record on the final frame.
func (s *Shipper) Ship(ctx context.Context, record []byte) error {
	var (
		frames []frame.Frame
		err    error
	)
	if s.textSafe {
		frames, err = frame.WrapTextWithDigest(string(record), s.maxFrame)
	} else {
		frames, err = frame.WrapWithDigest(record, s.maxFrame)
	}
	if err != nil {
		return err
	}
	if err := s.sink.Ship(ctx, frames); err != nil {
		if s.log != nil {
			s.log.WithError(err).WithField("frames", len(frames)).Error("ship failed")
		}
		return err
	}
	if s.log != nil && len(frames) > 1 {
		s.log.WithField("frames", len(frames)).Debug("record wrapped")
	}
	return nil
}

// ShipText is Ship for string records.
func (s *Shipper) ShipText(ctx context.Context, record string) error {
	return s.Ship(ctx, []byte(record))
}

// Close closes the underlying sink.
func (s *Shipper) Close() error { return s.sink.Close() }
