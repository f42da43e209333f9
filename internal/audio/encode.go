package audio

import "encoding/base64"

// Encode returns the padded standard base64 form of b.
func Encode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// Decode reverses Encode.
func Decode(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}
