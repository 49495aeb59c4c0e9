// Package frame bounds log records to a sink's maximum frame size.
//
// An oversized record is split into consecutive frames rather than truncated
// or rejected: reassembling the frames in SequenceIndex order reproduces the
// record byte-exactly. The final frame may carry a digest of the whole record
// so a receiver can verify reassembly.
package frame

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"xdao.co/logship/digest"
)

var (
	// ErrInvalidFrameSize is returned when the caller supplies a
	// non-positive maximum frame size. This is a pipeline setup bug, not a
	// per-record condition.
	ErrInvalidFrameSize = errors.New("frame: invalid frame size")

	// ErrNoFrames is returned by Reassemble for an empty sequence.
	ErrNoFrames = errors.New("frame: no frames")

	// ErrBadSequence is returned by Reassemble when indices are not
	// contiguous from 0 or the final flag is misplaced.
	ErrBadSequence = errors.New("frame: bad frame sequence")

	// ErrDigestMismatch is returned by Reassemble when the final frame's
	// digest does not match the reassembled record.
	ErrDigestMismatch = errors.New("frame: digest mismatch")
)

// Frame is one bounded chunk of a log record.
//
// Payload aliases the wrapped record's backing array; callers must not mutate
// the record until its frames have been consumed.
type Frame struct {
	// SequenceIndex is the 0-based position among frames of one record.
	SequenceIndex int
	// Final marks the last frame of the record.
	Final bool
	// Payload never exceeds the maxFrameSize passed to Wrap.
	Payload []byte
	// Digest of the whole original record, set on the final frame by
	// WrapWithDigest. Nil otherwise.
	Digest *digest.Digest
}

// Wrap splits record into frames of at most maxFrameSize bytes each,
// preserving byte order. A record that already fits yields exactly one final
// frame. Splitting is byte-exact; for text records where a split must not
// fall inside a multi-byte character, use WrapText.
func Wrap(record []byte, maxFrameSize int) ([]Frame, error) {
	if maxFrameSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFrameSize, maxFrameSize)
	}
	if len(record) <= maxFrameSize {
		return []Frame{{SequenceIndex: 0, Final: true, Payload: record}}, nil
	}
	n := (len(record) + maxFrameSize - 1) / maxFrameSize
	frames := make([]Frame, 0, n)
	for start := 0; start < len(record); start += maxFrameSize {
		end := start + maxFrameSize
		if end > len(record) {
			end = len(record)
		}
		frames = append(frames, Frame{
			SequenceIndex: len(frames),
			Final:         end == len(record),
			Payload:       record[start:end],
		})
	}
	return frames, nil
}

// WrapText splits a UTF-8 record like Wrap, but never inside a multi-byte
// character: a split point backs up to the nearest rune boundary, at most
// utf8.UTFMax-1 bytes. When maxFrameSize is smaller than a single rune's
// encoding (only possible for maxFrameSize < 4), that boundary falls back to
// a byte-exact cut so forward progress is guaranteed; the consumer must then
// reassemble before decoding.
func WrapText(record string, maxFrameSize int) ([]Frame, error) {
	if maxFrameSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFrameSize, maxFrameSize)
	}
	b := []byte(record)
	if len(b) <= maxFrameSize {
		return []Frame{{SequenceIndex: 0, Final: true, Payload: b}}, nil
	}
	var frames []Frame
	start := 0
	for start < len(b) {
		end := start + maxFrameSize
		if end >= len(b) {
			end = len(b)
		} else {
			end = runeBoundary(b, start, end)
		}
		frames = append(frames, Frame{
			SequenceIndex: len(frames),
			Final:         end == len(b),
			Payload:       b[start:end],
		})
		start = end
	}
	return frames, nil
}

// runeBoundary moves end backward (at most utf8.UTFMax-1 bytes, never at or
// below start) until b[end] no longer lands inside a multi-byte sequence.
func runeBoundary(b []byte, start, end int) int {
	for back := 0; back < utf8.UTFMax; back++ {
		if end-back <= start {
			break
		}
		if !isContinuation(b[end-back]) {
			return end - back
		}
	}
	return end
}

func isContinuation(c byte) bool { return c&0xC0 == 0x80 }

// WrapWithDigest is Wrap plus a SHA-256 digest of the whole record attached
// to the final frame, so a receiver can verify reassembly.
func WrapWithDigest(record []byte, maxFrameSize int) ([]Frame, error) {
	frames, err := Wrap(record, maxFrameSize)
	if err != nil {
		return nil, err
	}
	d := digest.Sum(record)
	frames[len(frames)-1].Digest = &d
	return frames, nil
}

// WrapTextWithDigest is WrapText plus a SHA-256 digest on the final frame.
func WrapTextWithDigest(record string, maxFrameSize int) ([]Frame, error) {
	frames, err := WrapText(record, maxFrameSize)
	if err != nil {
		return nil, err
	}
	d := digest.Sum([]byte(record))
	frames[len(frames)-1].Digest = &d
	return frames, nil
}

// Reassemble concatenates frames back into the original record.
//
// The sequence must be contiguous from index 0 with Final set on exactly the
// last frame. When the final frame carries a digest, the reassembled bytes
// are verified against it.
func Reassemble(frames []Frame) ([]byte, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	total := 0
	for i, f := range frames {
		if f.SequenceIndex != i {
			return nil, fmt.Errorf("%w: index %d at position %d", ErrBadSequence, f.SequenceIndex, i)
		}
		if f.Final != (i == len(frames)-1) {
			return nil, fmt.Errorf("%w: final flag at position %d", ErrBadSequence, i)
		}
		total += len(f.Payload)
	}
	record := make([]byte, 0, total)
	for _, f := range frames {
		record = append(record, f.Payload...)
	}
	if d := frames[len(frames)-1].Digest; d != nil {
		if err := d.Verify(record); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDigestMismatch, err)
		}
	}
	return record, nil
}
