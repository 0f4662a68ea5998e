package signature

import (
	"errors"
	"fmt"
	"testing"
)

const (
	testSecret = "whsec_test"
	testBody   = `{"type":"checkout.session.completed","data":{"object":{"id":"cs_123","payment_status":"paid"}}}`
)

func header(ts, v1 string) string {
	return fmt.Sprintf("t=%s,v1=%s", ts, v1)
}

func TestComputeKnownVector(t *testing.T) {
	got := Compute("1700000000", []byte(testBody), testSecret)
	want := "9502e040c366867af1649c10fcd8a87f1caeff7f6c68cd66b055856b0309b209"
	if got != want {
		t.Fatalf("Compute() = %s, want %s", got, want)
	}
}

func TestVerifyValid(t *testing.T) {
	sig := Compute("1700000000", []byte(testBody), testSecret)
	if err := Verify([]byte(testBody), header("1700000000", sig), testSecret); err != nil {
		t.Fatalf("Verify() = %v, want nil", err)
	}
}

func TestVerifyTampered(t *testing.T) {
	sig := Compute("1700000000", []byte(testBody), testSecret)

	cases := []struct {
		name    string
		payload string
		hdr     string
	}{
		{"flipped body byte", testBody[:10] + "X" + testBody[11:], header("1700000000", sig)},
		{"flipped timestamp", testBody, header("1700000001", sig)},
		{"flipped digest byte", testBody, header("1700000000", "a"+sig[1:])},
		{"truncated digest", testBody, header("1700000000", sig[:len(sig)-1])},
		{"wrong secret", testBody, header("1700000000", Compute("1700000000", []byte(testBody), "whsec_other"))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Verify([]byte(tc.payload), tc.hdr, testSecret)
			if !errors.Is(err, ErrInvalidSignature) {
				t.Fatalf("Verify() = %v, want ErrInvalidSignature", err)
			}
		})
	}
}

func TestParseHeaderMalformed(t *testing.T) {
	cases := []string{
		"",
		"t=123",
		"v1=abc",
		"garbage",
		"t=,v1=",
		"t123,v1abc",
	}
	for _, raw := range cases {
		if _, err := ParseHeader(raw); !errors.Is(err, ErrMissingSignature) {
			t.Errorf("ParseHeader(%q) = %v, want ErrMissingSignature", raw, err)
		}
	}
}

func TestParseHeaderIgnoresExtraFields(t *testing.T) {
	h, err := ParseHeader("t=42,v0=legacy,v1=abc")
	if err != nil {
		t.Fatalf("ParseHeader() error = %v", err)
	}
	if h.Timestamp != "42" || h.V1 != "abc" {
		t.Fatalf("ParseHeader() = %+v", h)
	}
}

func TestConstantTimeEqual(t *testing.T) {
	if !constantTimeEqual("abcd", "abcd") {
		t.Error("equal strings must compare true")
	}
	// Length mismatch is the only permitted short-circuit.
	if constantTimeEqual("abcd", "abc") {
		t.Error("length mismatch must compare false")
	}
	// A difference in the first byte and one in the last byte must both be
	// caught; the scan never exits early on equal-length inputs.
	if constantTimeEqual("Xbcd", "abcd") {
		t.Error("first-byte difference must compare false")
	}
	if constantTimeEqual("abcX", "abcd") {
		t.Error("last-byte difference must compare false")
	}
}

func TestFoldDiffScansInFull(t *testing.T) {
	// A first-byte mismatch must not shorten the scan: every index is read
	// exactly once regardless of where the inputs diverge.
	cases := []struct {
		name string
		a, b string
	}{
		{"differ at first byte", "Xbcdefgh", "abcdefgh"},
		{"differ at last byte", "abcdefgX", "abcdefgh"},
		{"equal", "abcdefgh", "abcdefgh"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reads := 0
			v := foldDiff(len(tc.a), func(i int) byte {
				reads++
				return tc.a[i] ^ tc.b[i]
			})
			if reads != len(tc.a) {
				t.Errorf("reads = %d, want %d", reads, len(tc.a))
			}
			if gotEqual := v == 0; gotEqual != (tc.a == tc.b) {
				t.Errorf("foldDiff() = %#x, equality mismatch", v)
			}
		})
	}
}
