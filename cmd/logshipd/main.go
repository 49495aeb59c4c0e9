// Command logshipd receives framed log records over the LogSink gRPC
// service, verifies their digests, and spools them to disk. Peers are gated
// by an allow/deny list of validated network masks.
package main

import (
	"flag"
	"net"
	"net/netip"
	"os"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"xdao.co/logship/allowlist"
	"xdao.co/logship/shipper/grpcsink"
	"xdao.co/logship/shipper/spool"
)

func main() {
	fs := flag.NewFlagSet("logshipd", flag.ExitOnError)
	listen := fs.String("listen", "127.0.0.1:7878", "listen address")
	spoolDir := fs.String("spool-dir", "", "spool directory for received records (required)")
	allowFlag := fs.String("allow", "", "comma-separated allow masks (default: LOGSHIP_ALLOW)")
	denyFlag := fs.String("deny", "", "comma-separated deny masks (default: LOGSHIP_DENY)")
	maxFrames := fs.Int("max-frames", 4096, "maximum frames accepted per record (0 = unlimited)")
	logLevel := fs.String("log-level", "info", "logrus level: debug, info, warn, error")

	_ = fs.Parse(os.Args[1:])

	log := logrus.New()
	if lvl, err := logrus.ParseLevel(*logLevel); err == nil {
		log.SetLevel(lvl)
	} else {
		log.Warnf("invalid log level %q, using info", *logLevel)
	}

	if *spoolDir == "" {
		log.Fatal("missing --spool-dir")
	}

	matcher, err := buildMatcher(*allowFlag, *denyFlag)
	if err != nil {
		log.WithError(err).Fatal("invalid allow/deny rules")
	}

	sp, err := spool.New(*spoolDir)
	if err != nil {
		log.WithError(err).Fatal("open spool")
	}

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		log.WithError(err).Fatal("listen")
	}
	defer lis.Close()

	s := grpc.NewServer(grpc.StreamInterceptor(peerGate(matcher, log)))
	grpcsink.RegisterLogSinkServer(s, &grpcsink.Server{
		Receiver:  grpcsink.StoreReceiver{Store: sp},
		MaxFrames: *maxFrames,
	})

	log.WithFields(logrus.Fields{
		"addr":  lis.Addr().String(),
		"spool": *spoolDir,
	}).Info("logshipd listening")
	if err := s.Serve(lis); err != nil {
		log.WithError(err).Fatal("serve")
	}
}

func buildMatcher(allowFlag, denyFlag string) (*allowlist.Matcher, error) {
	var (
		cfg *allowlist.Config
		err error
	)
	if allowFlag == "" && denyFlag == "" {
		cfg, err = allowlist.FromEnv()
	} else {
		cfg = &allowlist.Config{}
		if allowFlag != "" {
			if cfg.Allow, err = allowlist.ParseList(allowFlag); err != nil {
				return nil, err
			}
		}
		if denyFlag != "" {
			cfg.Deny, err = allowlist.ParseList(denyFlag)
		}
	}
	if err != nil {
		return nil, err
	}
	return allowlist.NewMatcher(cfg), nil
}

// peerGate rejects streams from peers outside the allowlist. Peers without a
// parseable IP (unix sockets, in-process test dialers) pass through: the
// mask gate only has meaning for routed addresses.
func peerGate(m *allowlist.Matcher, log *logrus.Logger) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if p, ok := peer.FromContext(ss.Context()); ok && p.Addr != nil {
			if ap, err := netip.ParseAddrPort(p.Addr.String()); err == nil {
				if allowed, rule := m.AllowedAddrPort(ap); !allowed {
					entry := log.WithField("peer", ap.Addr().String())
					if rule != "" {
						entry = entry.WithField("rule", rule)
					}
					entry.Warn("peer denied")
					return status.Error(codes.PermissionDenied, "peer not allowed")
				}
			}
		}
		return handler(srv, ss)
	}
}
