package grpcsink

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"xdao.co/logship/shipper"
)

// mapErr converts shipper-side errors to gRPC status errors for the server.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, shipper.ErrCIDMismatch):
		return status.Error(codes.DataLoss, shipper.ErrCIDMismatch.Error())
	case errors.Is(err, shipper.ErrImmutable):
		return status.Error(codes.AlreadyExists, shipper.ErrImmutable.Error())
	case errors.Is(err, shipper.ErrInvalidCID):
		return status.Error(codes.InvalidArgument, shipper.ErrInvalidCID.Error())
	case errors.Is(err, shipper.ErrNotFound):
		return status.Error(codes.NotFound, shipper.ErrNotFound.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// mapRPC converts gRPC status errors back to shipper sentinels for the
// client.
func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.NotFound:
		return shipper.ErrNotFound
	case codes.InvalidArgument:
		// Server uses InvalidArgument for malformed frames and CIDs.
		return shipper.ErrInvalidCID
	case codes.DataLoss:
		// Server uses DataLoss for digest/CID mismatches.
		return shipper.ErrCIDMismatch
	default:
		// Best-effort: if the server sent a known sentinel message, preserve it.
		switch st.Message() {
		case shipper.ErrNotFound.Error():
			return shipper.ErrNotFound
		case shipper.ErrInvalidCID.Error():
			return shipper.ErrInvalidCID
		case shipper.ErrCIDMismatch.Error():
			return shipper.ErrCIDMismatch
		default:
			return err
		}
	}
}
