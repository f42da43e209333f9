package audio

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestEncodeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	random := make([]byte, 1031)
	rng.Read(random)

	cases := map[string][]byte{
		"empty":         {},
		"single zero":   {0},
		"all zero":      make([]byte, 17),
		"leading zeros": {0, 0, 0xff, 0x10},
		"trailing zero": {0xde, 0xad, 0},
		"invalid utf8":  {0xff, 0xfe, 0xc3, 0x28},
		"random":        random,
	}

	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			out, err := Decode(Encode(in))
			if err != nil {
				t.Fatalf("Decode returned error: %v", err)
			}
			if !bytes.Equal(out, in) {
				t.Fatalf("round trip mismatch: got %x want %x", out, in)
			}
		})
	}
}

func TestEncodePadding(t *testing.T) {
	cases := []struct {
		in   []byte
		want string
	}{
		{[]byte("f"), "Zg=="},
		{[]byte("fo"), "Zm8="},
		{[]byte("foo"), "Zm9v"},
		{[]byte("foob"), "Zm9vYg=="},
	}
	for _, tc := range cases {
		if got := Encode(tc.in); got != tc.want {
			t.Errorf("Encode(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode("not base64!"); err == nil {
		t.Fatal("expected error for invalid input")
	}
}
