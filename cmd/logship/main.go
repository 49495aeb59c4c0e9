package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/netip"
	"os"
	"strings"

	"xdao.co/logship/allowlist"
	"xdao.co/logship/digest"
	"xdao.co/logship/frame"
	"xdao.co/logship/netmask"
	"xdao.co/logship/shipper"
	"xdao.co/logship/shipper/sinkconfig"
	"xdao.co/logship/shipper/sinkregistry"

	_ "xdao.co/logship/shipper/grpcsink"
	_ "xdao.co/logship/shipper/spool"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "mask":
		return cmdMask(args[1:], out, errOut)
	case "digest":
		return cmdDigest(args[1:], out, errOut)
	case "wrap":
		return cmdWrap(args[1:], out, errOut)
	case "allow":
		return cmdAllow(args[1:], out, errOut)
	case "ship":
		return cmdShip(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "logship: log shipping and integrity verification CLI")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  logship mask [--strict] <address/prefix> [...]")
	fmt.Fprintln(w, "  logship digest [--alg sha256|sha512|sha3-256] [--cid] [<file>]")
	fmt.Fprintln(w, "  logship wrap --max <bytes> [--bytes] [<file>]")
	fmt.Fprintln(w, "  logship allow [--allow <list>] [--deny <list>] [--rules <yaml>] <address> [...]")
	fmt.Fprintln(w, "  logship ship (--config <json> | --sink <name> [sink flags]) [--frame-bytes <n>] [<file>]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - mask validates IP network masks (prefix bounds per address family)")
	fmt.Fprintln(w, "  - digest output is always standard base64 (+ / =), never URL-safe")
	fmt.Fprintln(w, "  - ship reads one record per line and wraps oversized records into frames")
	fmt.Fprintln(w, "  - allow lists also honor LOGSHIP_ALLOW / LOGSHIP_DENY when flags are absent")
}

func cmdMask(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("mask", flag.ContinueOnError)
	fs.SetOutput(errOut)
	strict := fs.Bool("strict", false, "reject nonzero host bits instead of masking them")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(errOut, "mask: at least one <address/prefix> argument required")
		return 2
	}

	rc := 0
	for _, arg := range fs.Args() {
		var (
			m   netmask.Mask
			err error
		)
		if *strict {
			m, err = netmask.ParseStrict(arg)
		} else {
			m, err = netmask.Parse(arg)
		}
		if err != nil {
			if id := netmask.RuleID(err); id != "" {
				fmt.Fprintf(errOut, "%s: invalid (%s): %v\n", arg, id, err)
			} else {
				fmt.Fprintf(errOut, "%s: invalid: %v\n", arg, err)
			}
			rc = 1
			continue
		}
		fmt.Fprintf(out, "%s\tprefix=%d\tbits=%d\n", m, m.PrefixLen(), m.Bits())
	}
	return rc
}

func cmdDigest(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("digest", flag.ContinueOnError)
	fs.SetOutput(errOut)
	alg := fs.String("alg", digest.AlgSHA256, "hash algorithm: sha256, sha512, sha3-256")
	withCID := fs.Bool("cid", false, "also print the CIDv1 (raw + sha2-256) content address")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	payload, err := readInput(fs.Args(), errOut)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	d, err := digest.SumAlg(*alg, payload)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	fmt.Fprintln(out, d.String())
	if *withCID {
		fmt.Fprintln(out, digest.CID(payload))
	}
	return 0
}

func cmdWrap(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("wrap", flag.ContinueOnError)
	fs.SetOutput(errOut)
	max := fs.Int("max", 0, "maximum frame payload size in bytes (required, positive)")
	raw := fs.Bool("bytes", false, "split at raw byte boundaries (default splits at UTF-8 rune boundaries)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	record, err := readInput(fs.Args(), errOut)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}

	var frames []frame.Frame
	if *raw {
		frames, err = frame.WrapWithDigest(record, *max)
	} else {
		frames, err = frame.WrapTextWithDigest(string(record), *max)
	}
	if err != nil {
		fmt.Fprintln(errOut, err)
		if errors.Is(err, frame.ErrInvalidFrameSize) {
			return 2
		}
		return 1
	}

	for _, f := range frames {
		final := ""
		if f.Final {
			final = "\tfinal"
		}
		fmt.Fprintf(out, "frame %d\t%d bytes%s\n", f.SequenceIndex, len(f.Payload), final)
		if f.Digest != nil {
			fmt.Fprintf(out, "digest\t%s\n", f.Digest.String())
		}
	}
	return 0
}

func cmdAllow(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("allow", flag.ContinueOnError)
	fs.SetOutput(errOut)
	allowList := fs.String("allow", "", "comma-separated allow masks/addresses")
	denyList := fs.String("deny", "", "comma-separated deny masks/addresses")
	rulesFile := fs.String("rules", "", "YAML rules file (overrides --allow/--deny)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(errOut, "allow: at least one <address> argument required")
		return 2
	}

	cfg, err := allowConfig(*rulesFile, *allowList, *denyList)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	m := allowlist.NewMatcher(cfg)

	rc := 0
	for _, arg := range fs.Args() {
		addr, err := netip.ParseAddr(arg)
		if err != nil {
			fmt.Fprintf(errOut, "%s: invalid address: %v\n", arg, err)
			rc = 2
			continue
		}
		ok, rule := m.Allowed(addr)
		verdict := "deny"
		if ok {
			verdict = "allow"
		}
		if rule == "" {
			rule = "-"
		}
		fmt.Fprintf(out, "%s\t%s\t%s\n", arg, verdict, rule)
		if !ok && rc == 0 {
			rc = 1
		}
	}
	return rc
}

func allowConfig(rulesFile, allowList, denyList string) (*allowlist.Config, error) {
	if rulesFile != "" {
		return allowlist.LoadYAML(rulesFile)
	}
	if allowList == "" && denyList == "" {
		return allowlist.FromEnv()
	}
	cfg := &allowlist.Config{}
	var err error
	if allowList != "" {
		if cfg.Allow, err = allowlist.ParseList(allowList); err != nil {
			return nil, err
		}
	}
	if denyList != "" {
		if cfg.Deny, err = allowlist.ParseList(denyList); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func cmdShip(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("ship", flag.ContinueOnError)
	fs.SetOutput(errOut)
	configPath := fs.String("config", "", "sink config JSON file")
	sinkName := fs.String("sink", "", "sink backend name (see backend flags)")
	frameBytes := fs.Int("frame-bytes", 4096, "maximum frame payload size in bytes (with --sink)")
	listSinks := fs.Bool("list-sinks", false, "list supported sink backends and exit")
	sinkregistry.RegisterFlags(fs, sinkregistry.UsageCLI)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *listSinks {
		for _, b := range sinkregistry.List(sinkregistry.UsageCLI) {
			if b.Description == "" {
				fmt.Fprintf(out, "%s\n", b.Name)
				continue
			}
			fmt.Fprintf(out, "%s\t%s\n", b.Name, b.Description)
		}
		return 0
	}

	sh, closeFn, err := openShipper(*configPath, *sinkName, *frameBytes)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	if closeFn != nil {
		defer func() { _ = closeFn() }()
	}
	defer func() { _ = sh.Close() }()

	in := os.Stdin
	if fs.NArg() > 0 {
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
		defer f.Close()
		in = f
	}

	ctx := context.Background()
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	shipped, failed := 0, 0
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if err := sh.ShipText(ctx, line); err != nil {
			fmt.Fprintf(errOut, "ship: %v\n", err)
			failed++
			continue
		}
		shipped++
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(errOut, "read: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "shipped %d record(s), %d failed\n", shipped, failed)
	if failed > 0 {
		return 1
	}
	return 0
}

func openShipper(configPath, sinkName string, frameBytes int) (*shipper.Shipper, func() error, error) {
	if configPath != "" {
		cfg, err := sinkconfig.LoadFile(configPath)
		if err != nil {
			return nil, nil, err
		}
		return cfg.NewShipper(sinkregistry.UsageCLI, shipper.WithTextSplitting())
	}
	if sinkName == "" {
		return nil, nil, fmt.Errorf("ship: either --config or --sink is required")
	}
	sink, closeFn, err := sinkregistry.Open(sinkName, sinkregistry.UsageCLI)
	if err != nil {
		return nil, nil, err
	}
	sh, err := shipper.New(sink, frameBytes, shipper.WithTextSplitting())
	if err != nil {
		_ = sink.Close()
		if closeFn != nil {
			_ = closeFn()
		}
		return nil, nil, err
	}
	return sh, closeFn, nil
}

func readInput(args []string, errOut io.Writer) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(os.Stdin)
	}
	if len(args) > 1 {
		fmt.Fprintln(errOut, "warning: extra arguments ignored")
	}
	return os.ReadFile(args[0])
}
