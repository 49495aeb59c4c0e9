package spool

import (
	"flag"
	"fmt"

	"xdao.co/logship/shipper"
	"xdao.co/logship/shipper/sinkregistry"
)

var flagSpoolDir string

func init() {
	sinkregistry.MustRegister(sinkregistry.Backend{
		Name:        "spool",
		Description: "Local filesystem spool (directory)",
		Usage:       sinkregistry.UsageCLI | sinkregistry.UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flagSpoolDir, "spool-dir", "", "Spool directory (for --sink=spool)")
		},
		Open: func() (shipper.Sink, func() error, error) {
			if flagSpoolDir == "" {
				return nil, nil, fmt.Errorf("missing --spool-dir")
			}
			s, err := NewSink(flagSpoolDir)
			return s, nil, err
		},
	})
}
