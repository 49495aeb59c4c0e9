package sinkregistry

import (
	"flag"

	"xdao.co/logship/shipper"
)

// The discard backend lives here rather than in its own package: it has no
// state to configure and the registry already imports shipper.
func init() {
	MustRegister(Backend{
		Name:          "discard",
		Description:   "Validate and drop every record",
		Usage:         UsageCLI | UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) {},
		Open: func() (shipper.Sink, func() error, error) {
			return shipper.DiscardSink{}, nil, nil
		},
	})
}
