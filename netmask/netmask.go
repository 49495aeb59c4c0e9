// Package netmask parses and validates IP network masks in "address/prefix"
// form. Masks are validated against the address family's bit width before
// callers apply them to allow/deny decisions.
package netmask

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

// Mask is a validated, immutable network mask.
//
// The address is stored with host bits beyond the prefix length zeroed, so
// String() is canonical for a given network regardless of which member
// address the caller wrote.
type Mask struct {
	prefix netip.Prefix
}

// Parse parses "address/prefix" and validates the prefix against the address
// family (0..32 for IPv4, 0..128 for IPv6). Host bits beyond the prefix are
// masked off; use ParseStrict to reject them instead.
//
// IPv4-mapped IPv6 addresses (::ffff:a.b.c.d) validate under IPv6 rules and
// are never reinterpreted as IPv4.
func Parse(text string) (Mask, error) {
	addr, bits, err := split(text)
	if err != nil {
		return Mask{}, err
	}
	p, err := addr.Prefix(bits)
	if err != nil {
		// Range was checked in split; this is unreachable for valid input.
		return Mask{}, wrapError("LS-MASK-005", fmt.Sprintf("prefix /%d out of range for %s", bits, addr), err)
	}
	return Mask{prefix: p}, nil
}

// ParseStrict is Parse, except inputs with nonzero host bits beyond the
// prefix are rejected rather than masked.
func ParseStrict(text string) (Mask, error) {
	addr, bits, err := split(text)
	if err != nil {
		return Mask{}, err
	}
	p, err := addr.Prefix(bits)
	if err != nil {
		return Mask{}, wrapError("LS-MASK-005", fmt.Sprintf("prefix /%d out of range for %s", bits, addr), err)
	}
	if p.Addr() != addr {
		return Mask{}, newError("LS-MASK-006", fmt.Sprintf("nonzero host bits in %q (want %s)", text, p))
	}
	return Mask{prefix: p}, nil
}

func split(text string) (netip.Addr, int, error) {
	if text == "" {
		return netip.Addr{}, 0, newError("LS-MASK-001", "empty mask")
	}
	addrText, prefixText, ok := strings.Cut(text, "/")
	if !ok {
		return netip.Addr{}, 0, newError("LS-MASK-002", fmt.Sprintf("missing prefix length in %q", text))
	}
	addr, err := netip.ParseAddr(addrText)
	if err != nil {
		return netip.Addr{}, 0, wrapError("LS-MASK-003", fmt.Sprintf("invalid address in %q", text), err)
	}
	if addr.Zone() != "" {
		return netip.Addr{}, 0, newError("LS-MASK-007", fmt.Sprintf("zoned address not allowed in mask %q", text))
	}
	// Plain decimal digits only: ParseUint rejects signs, and a leading zero
	// is a non-canonical spelling we refuse rather than normalize.
	bits64, err := strconv.ParseUint(prefixText, 10, 32)
	if err != nil {
		return netip.Addr{}, 0, wrapError("LS-MASK-004", fmt.Sprintf("invalid prefix length in %q", text), err)
	}
	if len(prefixText) > 1 && prefixText[0] == '0' {
		return netip.Addr{}, 0, newError("LS-MASK-004", fmt.Sprintf("leading zero in prefix length in %q", text))
	}
	if bits64 > uint64(addr.BitLen()) {
		return netip.Addr{}, 0, newError("LS-MASK-005", fmt.Sprintf("prefix /%d out of range for %s (max %d)", bits64, addrText, addr.BitLen()))
	}
	return addr, int(bits64), nil
}

// IsValid reports whether the mask was produced by a successful Parse.
// The zero Mask is not valid.
func (m Mask) IsValid() bool { return m.prefix.IsValid() }

// Addr returns the (masked) network address.
func (m Mask) Addr() netip.Addr { return m.prefix.Addr() }

// PrefixLen returns the prefix length in bits.
func (m Mask) PrefixLen() int { return m.prefix.Bits() }

// Bits returns the address family's bit width: 32 for IPv4, 128 for IPv6.
func (m Mask) Bits() int { return m.prefix.Addr().BitLen() }

// Contains reports whether addr is inside the mask's network.
// The match is family-strict: an IPv4 mask never contains an IPv6 address,
// including IPv4-mapped forms (callers holding 4-in-6 peers should Unmap
// before matching, as allowlist.Matcher does).
func (m Mask) Contains(addr netip.Addr) bool {
	return m.prefix.Contains(addr)
}

// Prefix returns the underlying netip.Prefix.
func (m Mask) Prefix() netip.Prefix { return m.prefix }

func (m Mask) String() string {
	if !m.IsValid() {
		return "<invalid mask>"
	}
	return m.prefix.String()
}
