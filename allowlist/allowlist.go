// Package allowlist applies validated network masks to allow/deny decisions.
//
// Deny rules take precedence over allow rules. An empty allow list admits
// every address not denied; a non-empty allow list admits only members.
package allowlist

import (
	"fmt"
	"net/netip"
	"sync/atomic"

	"xdao.co/logship/netmask"
)

// Rule pairs a validated mask with the text it was parsed from.
type Rule struct {
	Mask        netmask.Mask
	Description string
}

// Config holds the allow and deny rule lists. Treat as immutable once handed
// to a Matcher.
type Config struct {
	Allow []Rule
	Deny  []Rule
}

// Stats is a snapshot of match counters.
type Stats struct {
	Total   int64
	Allowed int64
	Denied  int64
}

// Matcher evaluates addresses against a Config.
//
// The config is held behind an atomic.Value so SetConfig is safe against
// concurrent Allowed calls.
type Matcher struct {
	config atomic.Value // *Config

	total   atomic.Int64
	allowed atomic.Int64
	denied  atomic.Int64
}

// NewMatcher returns a Matcher over cfg. A nil cfg means allow-all.
func NewMatcher(cfg *Config) *Matcher {
	if cfg == nil {
		cfg = &Config{}
	}
	m := &Matcher{}
	m.config.Store(cfg)
	return m
}

// SetConfig atomically replaces the rule set. In-flight Allowed calls keep
// the config they loaded.
func (m *Matcher) SetConfig(cfg *Config) {
	if cfg == nil {
		cfg = &Config{}
	}
	m.config.Store(cfg)
}

// Allowed reports whether addr may pass, with the description of the rule
// that decided it ("" when no rule matched). IPv4-mapped IPv6 addresses are
// unmapped first so dual-stack peers match IPv4 rules.
func (m *Matcher) Allowed(addr netip.Addr) (bool, string) {
	cfg := m.config.Load().(*Config)
	m.total.Add(1)

	a := addr.Unmap()
	for _, r := range cfg.Deny {
		if r.Mask.Contains(a) {
			m.denied.Add(1)
			return false, r.Description
		}
	}
	if len(cfg.Allow) == 0 {
		m.allowed.Add(1)
		return true, ""
	}
	for _, r := range cfg.Allow {
		if r.Mask.Contains(a) {
			m.allowed.Add(1)
			return true, r.Description
		}
	}
	m.denied.Add(1)
	return false, ""
}

// AllowedAddrPort is Allowed for a peer's address:port.
func (m *Matcher) AllowedAddrPort(ap netip.AddrPort) (bool, string) {
	return m.Allowed(ap.Addr())
}

// Stats returns a snapshot of the match counters.
func (m *Matcher) Stats() Stats {
	return Stats{
		Total:   m.total.Load(),
		Allowed: m.allowed.Load(),
		Denied:  m.denied.Load(),
	}
}

// ParseRule validates one mask expression. Bare addresses (no "/") are
// promoted to /32 or /128 single-address masks before validation, so list
// entries may name hosts directly.
func ParseRule(text string) (Rule, error) {
	expr := text
	if _, err := netip.ParseAddr(text); err == nil {
		addr, _ := netip.ParseAddr(text)
		expr = fmt.Sprintf("%s/%d", text, addr.BitLen())
	}
	mask, err := netmask.Parse(expr)
	if err != nil {
		return Rule{}, err
	}
	return Rule{Mask: mask, Description: text}, nil
}
