package grpcsink

import (
	"context"
	"errors"
	"io"

	"github.com/ipfs/go-cid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/logship/digest"
	"xdao.co/logship/frame"
	"xdao.co/logship/shipper"
)

// Receiver accepts one fully reassembled, digest-verified record.
type Receiver interface {
	Receive(ctx context.Context, record []byte, id cid.Cid) error
}

// StoreReceiver adapts a shipper.Store into a Receiver.
type StoreReceiver struct {
	Store shipper.Store
}

func (r StoreReceiver) Receive(ctx context.Context, record []byte, id cid.Cid) error {
	_ = ctx
	got, err := r.Store.Put(record)
	if err != nil {
		return err
	}
	if got != id {
		return shipper.ErrCIDMismatch
	}
	return nil
}

// Server exposes a Receiver over the LogSink gRPC service.
type Server struct {
	UnimplementedLogSinkServer
	Receiver Receiver

	// MaxFrames bounds the frames accepted per record when non-zero, so one
	// stream cannot grow server memory without bound.
	MaxFrames int
}

func (s *Server) Ship(stream LogSink_ShipServer) error {
	if s == nil || s.Receiver == nil {
		return status.Error(codes.FailedPrecondition, "missing receiver")
	}

	var frames []frame.Frame
	for {
		msg, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		f, err := frameFromStruct(msg)
		if err != nil {
			return status.Error(codes.InvalidArgument, err.Error())
		}
		frames = append(frames, f)
		if s.MaxFrames > 0 && len(frames) > s.MaxFrames {
			return status.Errorf(codes.ResourceExhausted, "more than %d frames in one record", s.MaxFrames)
		}
	}

	record, err := frame.Reassemble(frames)
	if err != nil {
		return status.Error(frameCode(err), err.Error())
	}

	id, err := digest.CIDObj(record)
	if err != nil {
		return status.Error(codes.Internal, "cid computation failed")
	}
	if err := s.Receiver.Receive(stream.Context(), record, id); err != nil {
		return mapErr(err)
	}
	return stream.SendAndClose(wrapperspb.String(id.String()))
}

func frameCode(err error) codes.Code {
	if errors.Is(err, frame.ErrDigestMismatch) {
		return codes.DataLoss
	}
	return codes.InvalidArgument
}
