package grpcsink

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"xdao.co/logship/digest"
	"xdao.co/logship/frame"
	"xdao.co/logship/shipper"
)

// Client implements shipper.Sink over the LogSink gRPC service.
type Client struct {
	cc     *grpc.ClientConn
	client LogSinkClient

	// FrameLimit, when non-zero, is enforced on every outgoing frame's
	// payload. It should match the maxFrameSize the shipper wraps with: the
	// transport's message cap is the real constraint the wrapper exists for.
	FrameLimit int

	// Timeout applies per Ship call when non-zero.
	Timeout time.Duration
}

var _ shipper.Sink = (*Client)(nil)

// DialOptions configures Dial.
type DialOptions struct {
	// Timeout applies to the initial dial when non-zero.
	Timeout time.Duration

	// FrameLimit bounds outgoing frame payloads; see Client.FrameLimit.
	// When non-zero it also sizes the gRPC send/recv message caps, with
	// headroom for the frame envelope.
	FrameLimit int
}

// envelopeOverhead covers the Struct field names, base64 expansion and
// proto framing around a payload at the frame limit.
func envelopeOverhead(limit int) int {
	return limit/2 + 256
}

func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.FrameLimit > 0 {
		max := opts.FrameLimit + envelopeOverhead(opts.FrameLimit)
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(max),
				grpc.MaxCallSendMsgSize(max),
			),
		)
	}

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cc, err := grpc.DialContext(ctx, target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{
		cc:         cc,
		client:     NewLogSinkClient(cc),
		FrameLimit: opts.FrameLimit,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

// Ship streams one record's frames and verifies the server's receipt CID
// against the reassembled record.
func (c *Client) Ship(ctx context.Context, frames []frame.Frame) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("grpcsink: client not dialed")
	}
	record, err := frame.Reassemble(frames)
	if err != nil {
		return err
	}
	if c.FrameLimit > 0 {
		for _, f := range frames {
			if len(f.Payload) > c.FrameLimit {
				return fmt.Errorf("%w: frame %d payload %d bytes exceeds limit %d",
					frame.ErrInvalidFrameSize, f.SequenceIndex, len(f.Payload), c.FrameLimit)
			}
		}
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	stream, err := c.client.Ship(ctx)
	if err != nil {
		return mapRPC(err)
	}
	for _, f := range frames {
		if err := stream.Send(frameToStruct(f)); err != nil {
			return mapRPC(err)
		}
	}
	receipt, err := stream.CloseAndRecv()
	if err != nil {
		return mapRPC(err)
	}

	expected := digest.CID(record)
	if receipt.GetValue() != expected {
		return shipper.ErrCIDMismatch
	}
	return nil
}
