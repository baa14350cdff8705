package common

import (
	"bytes"
	"strings"
)

// Words splits a phrase held as bytes into its words.
// The returned strings are copies; callers drop them as soon as they are used.
func Words(phrase []byte) []string {
	fields := bytes.Fields(phrase)
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = string(f)
	}
	return out
}

// NormalizePhrase collapses whitespace so "a  b\n" and "a b" are the same phrase
func NormalizePhrase(phrase string) string {
	return strings.Join(strings.Fields(phrase), " ")
}

// ShortAddress shortens a public address for logs and UI: "7xKXtg2C...9fQpHx3u"
func ShortAddress(address string) string {
	const keep = 8
	if len(address) <= 2*keep+3 {
		return address
	}
	return address[:keep] + "..." + address[len(address)-keep:]
}
