// Package auth holds the permission model for dashboard capabilities. The
// service consumes permission keys granted elsewhere; it never manages them.
package auth

import (
	"sort"
	"strings"
)

// Permission keys gating each dashboard capability.
const (
	PermSiteSelect   = "site:select"
	PermHazardView   = "hazard:view"
	PermDisaggView   = "disagg:view"
	PermUHSView      = "uhs:view"
	PermGMSCompute   = "gms:compute"
	PermScenarioView = "scenario:view"
	PermDataDownload = "data:download"
)

// Set is a permission set for one authenticated session.
type Set map[string]struct{}

// NewSet builds a set from permission keys, ignoring empty entries.
func NewSet(keys ...string) Set {
	set := make(Set, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		set[key] = struct{}{}
	}
	return set
}

// ParseList splits a comma-separated permission list into a set.
func ParseList(list string) Set {
	return NewSet(strings.Split(list, ",")...)
}

// Has reports whether the set grants a permission key.
func (s Set) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Keys returns the granted permissions in sorted order.
func (s Set) Keys() []string {
	keys := make([]string, 0, len(s))
	for key := range s {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
