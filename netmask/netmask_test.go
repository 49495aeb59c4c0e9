package netmask

import (
	"errors"
	"fmt"
	"net/netip"
	"testing"
)

func TestParseValidMasks(t *testing.T) {
	cases := []struct {
		in     string
		prefix int
		bits   int
	}{
		{"192.168.1.0/24", 24, 32},
		{"10.0.0.0/8", 8, 32},
		{"0.0.0.0/0", 0, 32},
		{"255.255.255.255/32", 32, 32},
		{"2001:db8::/32", 32, 128},
		{"::/0", 0, 128},
		{"::1/128", 128, 128},
	}
	for _, c := range cases {
		m, err := Parse(c.in)
		if err != nil {
			t.Errorf("Parse(%q): unexpected error: %v", c.in, err)
			continue
		}
		if m.PrefixLen() != c.prefix {
			t.Errorf("Parse(%q): prefix = %d, want %d", c.in, m.PrefixLen(), c.prefix)
		}
		if m.Bits() != c.bits {
			t.Errorf("Parse(%q): bits = %d, want %d", c.in, m.Bits(), c.bits)
		}
	}
}

func TestParseFullPrefixRange(t *testing.T) {
	for p := 0; p <= 32; p++ {
		if _, err := Parse(fmt.Sprintf("10.0.0.0/%d", p)); err != nil {
			t.Errorf("IPv4 prefix /%d: unexpected error: %v", p, err)
		}
	}
	for p := 0; p <= 128; p++ {
		if _, err := Parse(fmt.Sprintf("2001:db8::/%d", p)); err != nil {
			t.Errorf("IPv6 prefix /%d: unexpected error: %v", p, err)
		}
	}
}

func TestParseRejectsOutOfRangePrefix(t *testing.T) {
	for _, in := range []string{
		"10.0.0.1/33",
		"10.0.0.1/129",
		"10.0.0.1/-1",
		"2001:db8::/129",
	} {
		if _, err := Parse(in); !errors.Is(err, ErrInvalidMask) {
			t.Errorf("Parse(%q): want ErrInvalidMask, got %v", in, err)
		}
	}
}

func TestParseRejectsMalformedInput(t *testing.T) {
	cases := []struct {
		in     string
		ruleID string
	}{
		{"", "LS-MASK-001"},
		{"10.0.0.1", "LS-MASK-002"},
		{"not-an-ip/24", "LS-MASK-003"},
		{"10.0.0.1/", "LS-MASK-004"},
		{"10.0.0.1/abc", "LS-MASK-004"},
		{"10.0.0.1/24/7", "LS-MASK-004"},
		// Only plain decimal digits: signed and zero-padded spellings are
		// non-canonical, not alternate ways to write a valid prefix.
		{"10.0.0.1/+24", "LS-MASK-004"},
		{"10.0.0.1/-1", "LS-MASK-004"},
		{"10.0.0.0/024", "LS-MASK-004"},
		{"10.0.0.1/33", "LS-MASK-005"},
		{"10.0.0.1/999", "LS-MASK-005"},
		{"fe80::1%eth0/64", "LS-MASK-007"},
		// Prefix 0 with a malformed address is still malformed.
		{"999.0.0.1/0", "LS-MASK-003"},
	}
	for _, c := range cases {
		_, err := Parse(c.in)
		if err == nil {
			t.Errorf("Parse(%q): expected error", c.in)
			continue
		}
		if !errors.Is(err, ErrInvalidMask) {
			t.Errorf("Parse(%q): want ErrInvalidMask, got %v", c.in, err)
		}
		if id := RuleID(err); id != c.ruleID {
			t.Errorf("Parse(%q): rule = %s, want %s", c.in, id, c.ruleID)
		}
	}
}

func TestParseMasksHostBits(t *testing.T) {
	m, err := Parse("192.168.1.77/24")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := m.String(); got != "192.168.1.0/24" {
		t.Errorf("String() = %q, want canonical 192.168.1.0/24", got)
	}
}

func TestParseStrictRejectsHostBits(t *testing.T) {
	if _, err := ParseStrict("192.168.1.0/24"); err != nil {
		t.Errorf("ParseStrict with zero host bits: %v", err)
	}
	_, err := ParseStrict("192.168.1.77/24")
	if !errors.Is(err, ErrInvalidMask) {
		t.Fatalf("want ErrInvalidMask, got %v", err)
	}
	if id := RuleID(err); id != "LS-MASK-006" {
		t.Errorf("rule = %s, want LS-MASK-006", id)
	}
}

func TestIPv4MappedValidatesAsIPv6(t *testing.T) {
	// /120 would be out of range for IPv4; the mapped form is IPv6.
	m, err := Parse("::ffff:192.168.1.0/120")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.Bits() != 128 {
		t.Errorf("bits = %d, want 128", m.Bits())
	}
	if _, err := Parse("::ffff:192.168.1.0/129"); !errors.Is(err, ErrInvalidMask) {
		t.Errorf("prefix /129 on mapped address should fail")
	}
}

func TestContains(t *testing.T) {
	m, err := Parse("192.168.1.0/24")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !m.Contains(netip.MustParseAddr("192.168.1.200")) {
		t.Error("expected member address to match")
	}
	if m.Contains(netip.MustParseAddr("192.168.2.1")) {
		t.Error("expected outside address not to match")
	}
	// Family-strict: the 4-in-6 form does not match an IPv4 mask directly.
	if m.Contains(netip.MustParseAddr("::ffff:192.168.1.200")) {
		t.Error("expected 4-in-6 address not to match without Unmap")
	}
}

func TestSingleAddressMask(t *testing.T) {
	m, err := Parse("10.1.2.3/32")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !m.Contains(netip.MustParseAddr("10.1.2.3")) {
		t.Error("expected exact address to match /32")
	}
	if m.Contains(netip.MustParseAddr("10.1.2.4")) {
		t.Error("expected neighbor not to match /32")
	}
}

func TestMatchAllMask(t *testing.T) {
	m, err := Parse("0.0.0.0/0")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, a := range []string{"1.2.3.4", "255.255.255.255", "10.0.0.1"} {
		if !m.Contains(netip.MustParseAddr(a)) {
			t.Errorf("expected /0 to contain %s", a)
		}
	}
}

func TestZeroMaskIsInvalid(t *testing.T) {
	var m Mask
	if m.IsValid() {
		t.Error("zero Mask must not be valid")
	}
	if m.String() != "<invalid mask>" {
		t.Errorf("String() = %q", m.String())
	}
}
