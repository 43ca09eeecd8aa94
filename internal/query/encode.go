// Package query builds core-API query strings. The core API expects raw
// concatenated values, so no URL escaping is applied beyond joining pairs.
package query

import (
	"fmt"
	"sort"
	"strings"
)

// Encode turns a parameter mapping into "?k1=v1&k2=v2" with no trailing
// separator. Keys are emitted in sorted order so output is deterministic.
// An empty mapping yields a bare "?"; callers must not send that upstream.
func Encode(params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('?')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		fmt.Fprintf(&b, "%s=%v", k, params[k])
	}
	return b.String()
}

// EncodeMulti is Encode for repeated parameters: every value of a key becomes
// its own k=v pair, preserving the order of values within a key.
func EncodeMulti(params map[string][]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('?')
	first := true
	for _, k := range keys {
		for _, v := range params[k] {
			if !first {
				b.WriteByte('&')
			}
			first = false
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(v)
		}
	}
	return b.String()
}
