// Package sinkconfig opens shipping pipelines from a JSON config file.
package sinkconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"xdao.co/logship/shipper"
	"xdao.co/logship/shipper/sinkregistry"
)

// Config describes how to open one or more sink backends via sinkregistry.
//
// ShipPolicy values:
// - "first" (default): deliver to the first sink that accepts the record
// - "all": deliver to every sink (see shipper.FanoutSink)
//
// FrameBytes is the per-frame payload limit the pipeline wraps with; it must
// be positive (a non-positive limit is a setup bug, rejected here, not per
// record).
//
// Example:
//
//	{
//	  "frame_bytes": 2048,
//	  "ship_policy": "all",
//	  "sinks": [
//	    {"name":"spool", "config":{"spool-dir":"/var/spool/logship"}},
//	    {"name":"grpc", "config":{"grpc-target":"10.0.0.7:7878"}}
//	  ]
//	}
//
// Note: Config values are backend-specific and mirror each backend's CLI
// flag names.
type Config struct {
	FrameBytes int          `json:"frame_bytes"`
	ShipPolicy string       `json:"ship_policy,omitempty"`
	Sinks      []SinkConfig `json:"sinks"`
}

type SinkConfig struct {
	// Name is the sinkregistry backend name to open (e.g. "spool", "grpc").
	Name string `json:"name"`
	// ID is an optional stable alias for reporting.
	ID     string            `json:"id,omitempty"`
	Config map[string]string `json:"config,omitempty"`
}

func LoadFile(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, errors.New("sinkconfig: empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.FrameBytes <= 0 {
		return fmt.Errorf("sinkconfig: frame_bytes must be positive (got %d)", c.FrameBytes)
	}
	if len(c.Sinks) == 0 {
		return errors.New("sinkconfig: at least one sink is required")
	}
	seen := make(map[string]struct{}, len(c.Sinks))
	for _, s := range c.Sinks {
		if s.Name == "" {
			return errors.New("sinkconfig: sink name is required")
		}
		id := s.Name
		if s.ID != "" {
			id = s.ID
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("sinkconfig: duplicate sink id %q", id)
		}
		seen[id] = struct{}{}
	}
	switch c.ShipPolicy {
	case "", "first", "all":
		return nil
	default:
		return fmt.Errorf("sinkconfig: invalid ship_policy %q", c.ShipPolicy)
	}
}

// Open opens every configured sink and composes them per ShipPolicy.
// The returned close function closes all opened sinks in reverse order.
func (c Config) Open(usage sinkregistry.Usage) (shipper.Sink, func() error, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}

	sinks := make([]shipper.Sink, 0, len(c.Sinks))
	closers := make([]func() error, 0, len(c.Sinks))
	for _, sc := range c.Sinks {
		s, closeFn, err := sinkregistry.OpenWithConfig(sc.Name, usage, sc.Config)
		if err != nil {
			// Each opened sink owns its resources through Close; closers are
			// backend cleanup beyond that.
			for i := len(sinks) - 1; i >= 0; i-- {
				_ = sinks[i].Close()
			}
			for i := len(closers) - 1; i >= 0; i-- {
				_ = closers[i]()
			}
			return nil, nil, err
		}
		sinks = append(sinks, s)
		if closeFn != nil {
			closers = append(closers, closeFn)
		}
	}

	closeAll := func() error {
		var firstErr error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	if len(sinks) == 1 {
		return sinks[0], closeAll, nil
	}
	if c.ShipPolicy == "all" {
		return shipper.FanoutSink{Sinks: sinks}, closeAll, nil
	}
	return shipper.FallbackSink{Sinks: sinks}, closeAll, nil
}

// NewShipper opens the configured sinks and builds a Shipper wrapping at
// FrameBytes.
func (c Config) NewShipper(usage sinkregistry.Usage, opts ...shipper.Option) (*shipper.Shipper, func() error, error) {
	sink, closeFn, err := c.Open(usage)
	if err != nil {
		return nil, nil, err
	}
	sh, err := shipper.New(sink, c.FrameBytes, opts...)
	if err != nil {
		_ = sink.Close()
		if closeFn != nil {
			_ = closeFn()
		}
		return nil, nil, err
	}
	return sh, closeFn, nil
}
