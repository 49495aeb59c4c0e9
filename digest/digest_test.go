package digest

import (
	"regexp"
	"strings"
	"testing"
)

// Standard base64 only: A-Z a-z 0-9 + / with trailing = padding.
var stdBase64 = regexp.MustCompile(`^[A-Za-z0-9+/]+={0,2}$`)

func TestSumEmptyPayload(t *testing.T) {
	d := Sum(nil)
	// SHA-256 of the empty input, rendered with the standard alphabet.
	const want = "47DEQpj8HBSa+/TImW+5JCeuQeRkm5NMpJWZG3hSuFU="
	if got := d.Encoded(); got != want {
		t.Errorf("Sum(nil).Encoded() = %q, want %q", got, want)
	}
	if d.Alg != AlgSHA256 {
		t.Errorf("Alg = %q, want %q", d.Alg, AlgSHA256)
	}
	if len(d.Raw) != 32 {
		t.Errorf("len(Raw) = %d, want 32", len(d.Raw))
	}
}

func TestSumDeterministic(t *testing.T) {
	payload := []byte("the same payload twice")
	a, b := Sum(payload), Sum(payload)
	if !a.Equal(b) {
		t.Error("identical payloads must yield identical digests")
	}
	if a.Encoded() != b.Encoded() {
		t.Error("identical payloads must yield identical encodings")
	}
}

func TestEncodedUsesStandardAlphabet(t *testing.T) {
	// Payloads chosen so the digest bytes are likely to include values that
	// the URL-safe alphabet would render as - or _.
	payloads := []string{"", "a", "frame", "\x00\xff\xfe", strings.Repeat("x", 1000)}
	sawPlusOrSlash := false
	for _, p := range payloads {
		for _, alg := range []string{AlgSHA256, AlgSHA512, AlgSHA3_256} {
			d, err := SumAlg(alg, []byte(p))
			if err != nil {
				t.Fatalf("SumAlg(%s): %v", alg, err)
			}
			enc := d.Encoded()
			if !stdBase64.MatchString(enc) {
				t.Errorf("SumAlg(%s, %q).Encoded() = %q: not standard base64", alg, p, enc)
			}
			if strings.ContainsAny(enc, "-_") {
				t.Errorf("SumAlg(%s, %q).Encoded() = %q: URL-safe characters present", alg, p, enc)
			}
			if strings.ContainsAny(enc, "+/") {
				sawPlusOrSlash = true
			}
			if len(enc)%4 != 0 {
				t.Errorf("SumAlg(%s, %q).Encoded() length %d not padded to 4", alg, p, len(enc))
			}
		}
	}
	if !sawPlusOrSlash {
		t.Error("test payloads never exercised + or /; pick payloads that do")
	}
}

func TestSumAlgLengths(t *testing.T) {
	cases := []struct {
		alg string
		n   int
	}{
		{AlgSHA256, 32},
		{AlgSHA512, 64},
		{AlgSHA3_256, 32},
	}
	for _, c := range cases {
		d, err := SumAlg(c.alg, []byte("payload"))
		if err != nil {
			t.Fatalf("SumAlg(%s): %v", c.alg, err)
		}
		if len(d.Raw) != c.n {
			t.Errorf("SumAlg(%s): len(Raw) = %d, want %d", c.alg, len(d.Raw), c.n)
		}
	}
	if _, err := SumAlg("md5", []byte("payload")); err == nil {
		t.Error("expected error for unsupported algorithm")
	}
}

func TestAlgsDiffer(t *testing.T) {
	p := []byte("same payload, different functions")
	a, _ := SumAlg(AlgSHA256, p)
	b, _ := SumAlg(AlgSHA3_256, p)
	if a.Equal(b) {
		t.Error("sha256 and sha3-256 digests must differ")
	}
}

func TestVerify(t *testing.T) {
	p := []byte("verify me")
	d := Sum(p)
	if err := d.Verify(p); err != nil {
		t.Errorf("Verify on matching payload: %v", err)
	}
	if err := d.Verify([]byte("tampered")); err == nil {
		t.Error("Verify on tampered payload: expected error")
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	d := Sum([]byte("round trip"))
	got, err := Decode(d.String())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !got.Equal(d) {
		t.Errorf("Decode(%q) != original", d.String())
	}
}

func TestDecodeRejectsBadInput(t *testing.T) {
	for _, in := range []string{
		"",
		"no-colon",
		"md5:AAAA",
		"sha256:!!!!",
		"sha256:AAAA", // wrong length
	} {
		if _, err := Decode(in); err == nil {
			t.Errorf("Decode(%q): expected error", in)
		}
	}
}

func TestCID(t *testing.T) {
	a := CID([]byte("hello"))
	b := CID([]byte("hello"))
	c := CID([]byte("world"))
	if a == "" || a != b {
		t.Errorf("CID not deterministic: %q vs %q", a, b)
	}
	if a == c {
		t.Error("distinct payloads must have distinct CIDs")
	}
	if !strings.HasPrefix(a, "baf") {
		t.Errorf("CID %q: expected CIDv1 base32 prefix", a)
	}
	obj, err := CIDObj([]byte("hello"))
	if err != nil {
		t.Fatalf("CIDObj: %v", err)
	}
	if obj.String() != a {
		t.Errorf("CIDObj = %s, CID = %s", obj, a)
	}
}
