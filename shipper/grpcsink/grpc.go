package grpcsink

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// LogSinkServer is the server API for the LogSink gRPC service.
//
// We intentionally use protobuf well-known types (structpb.Struct for frames,
// wrapperspb for the receipt) so this package does not require a
// protoc/codegen toolchain.
//
// Ship is client-streaming: the client sends one record's frames in
// SequenceIndex order and receives the record's CID as the receipt.
//
// Proto definition: logsink.proto.
type LogSinkServer interface {
	Ship(LogSink_ShipServer) error
}

// UnimplementedLogSinkServer can be embedded to have forward compatible
// implementations.
type UnimplementedLogSinkServer struct{}

func (UnimplementedLogSinkServer) Ship(LogSink_ShipServer) error {
	return status.Error(codes.Unimplemented, "method Ship not implemented")
}

// RegisterLogSinkServer registers the LogSink service on a gRPC server.
func RegisterLogSinkServer(s grpc.ServiceRegistrar, srv LogSinkServer) {
	s.RegisterService(&LogSink_ServiceDesc, srv)
}

// LogSinkClient is the client API for the LogSink gRPC service.
type LogSinkClient interface {
	Ship(ctx context.Context, opts ...grpc.CallOption) (LogSink_ShipClient, error)
}

type logSinkClient struct{ cc grpc.ClientConnInterface }

func NewLogSinkClient(cc grpc.ClientConnInterface) LogSinkClient {
	return &logSinkClient{cc: cc}
}

func (c *logSinkClient) Ship(ctx context.Context, opts ...grpc.CallOption) (LogSink_ShipClient, error) {
	stream, err := c.cc.NewStream(ctx, &LogSink_ServiceDesc.Streams[0], "/logship.shipper.grpcsink.v1.LogSink/Ship", opts...)
	if err != nil {
		return nil, err
	}
	return &logSinkShipClient{ClientStream: stream}, nil
}

// LogSink_ShipClient is the client side of one Ship call.
type LogSink_ShipClient interface {
	Send(*structpb.Struct) error
	CloseAndRecv() (*wrapperspb.StringValue, error)
	grpc.ClientStream
}

type logSinkShipClient struct{ grpc.ClientStream }

func (x *logSinkShipClient) Send(m *structpb.Struct) error {
	return x.ClientStream.SendMsg(m)
}

func (x *logSinkShipClient) CloseAndRecv() (*wrapperspb.StringValue, error) {
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	m := new(wrapperspb.StringValue)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// LogSink_ShipServer is the server side of one Ship call.
type LogSink_ShipServer interface {
	SendAndClose(*wrapperspb.StringValue) error
	Recv() (*structpb.Struct, error)
	grpc.ServerStream
}

type logSinkShipServer struct{ grpc.ServerStream }

func (x *logSinkShipServer) SendAndClose(m *wrapperspb.StringValue) error {
	return x.ServerStream.SendMsg(m)
}

func (x *logSinkShipServer) Recv() (*structpb.Struct, error) {
	m := new(structpb.Struct)
	if err := x.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func _LogSink_Ship_Handler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(LogSinkServer).Ship(&logSinkShipServer{ServerStream: stream})
}

// LogSink_ServiceDesc is the grpc.ServiceDesc for the LogSink service.
var LogSink_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "logship.shipper.grpcsink.v1.LogSink",
	HandlerType: (*LogSinkServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Ship",
			Handler:       _LogSink_Ship_Handler,
			ClientStreams: true,
		},
	},
	Metadata: "logsink.proto",
}
