package grpcsink

import (
	"flag"
	"fmt"
	"time"

	"xdao.co/logship/shipper"
	"xdao.co/logship/shipper/sinkregistry"
)

var (
	flagTarget     string
	flagFrameLimit int
	flagTimeout    time.Duration
)

func init() {
	sinkregistry.MustRegister(sinkregistry.Backend{
		Name:        "grpc",
		Description: "Remote LogSink gRPC service",
		Usage:       sinkregistry.UsageCLI,
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flagTarget, "grpc-target", "", "LogSink gRPC address (for --sink=grpc)")
			fs.IntVar(&flagFrameLimit, "grpc-frame-bytes", 0, "Per-frame payload limit in bytes (0 = unlimited)")
			fs.DurationVar(&flagTimeout, "grpc-timeout", 5*time.Second, "Per-ship RPC timeout")
		},
		Open: func() (shipper.Sink, func() error, error) {
			if flagTarget == "" {
				return nil, nil, fmt.Errorf("missing --grpc-target")
			}
			c, err := Dial(flagTarget, DialOptions{FrameLimit: flagFrameLimit})
			if err != nil {
				return nil, nil, err
			}
			c.Timeout = flagTimeout
			// No separate closer: the sink's own Close owns the connection,
			// and a second close of the same conn would report an error.
			return c, nil, nil
		},
	})
}
