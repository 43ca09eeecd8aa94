package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// IM identifies an intensity measure. Period-bearing measures carry the period
// as a suffix, e.g. "pSA_0.5"; scalar measures are bare tags such as "PGA".
type IM string

// imFamilyOrder fixes the canonical ordering of IM families on a spectra axis.
// Families not listed sort after the known ones, alphabetically.
var imFamilyOrder = []string{"PGA", "PGV", "CAV", "AI", "Ds575", "Ds595", "pSA"}

// Family returns the IM type prefix without any period suffix.
func (im IM) Family() string {
	name := string(im)
	if idx := strings.Index(name, "_"); idx >= 0 {
		return name[:idx]
	}
	return name
}

// Period returns the numeric period carried by the identifier, if any.
func (im IM) Period() (float64, bool) {
	name := string(im)
	idx := strings.Index(name, "_")
	if idx < 0 {
		return 0, false
	}
	period, err := strconv.ParseFloat(name[idx+1:], 64)
	if err != nil {
		return 0, false
	}
	return period, true
}

// NewPeriodIM builds a period-bearing identifier that parses back into
// (family, period) and re-renders to the same string.
func NewPeriodIM(family string, period float64) IM {
	return IM(family + "_" + strconv.FormatFloat(period, 'g', -1, 64))
}

// Valid reports whether the identifier is well formed: a non-empty family
// and, when a suffix is present, a parseable period.
func (im IM) Valid() bool {
	if im.Family() == "" {
		return false
	}
	if strings.Contains(string(im), "_") {
		_, ok := im.Period()
		return ok
	}
	return true
}

func familyRank(family string) int {
	for i, f := range imFamilyOrder {
		if f == family {
			return i
		}
	}
	return len(imFamilyOrder)
}

// Less orders identifiers by family priority, then ascending period within a
// family, then lexically for unknown families.
func (im IM) Less(other IM) bool {
	fa, fb := im.Family(), other.Family()
	ra, rb := familyRank(fa), familyRank(fb)
	if ra != rb {
		return ra < rb
	}
	if fa != fb {
		return fa < fb
	}
	pa, okA := im.Period()
	pb, okB := other.Period()
	if okA && okB {
		return pa < pb
	}
	if okA != okB {
		return !okA
	}
	return im < other
}

// SortIMs orders a copy of the identifiers canonically, leaving the input
// untouched.
func SortIMs(ims []IM) []IM {
	sorted := append([]IM(nil), ims...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })
	return sorted
}

// IMStrings converts identifiers to their wire representation.
func IMStrings(ims []IM) []string {
	out := make([]string, 0, len(ims))
	for _, im := range ims {
		out = append(out, string(im))
	}
	return out
}

// ParseIMs converts wire identifiers, rejecting malformed entries.
func ParseIMs(names []string) ([]IM, error) {
	ims := make([]IM, 0, len(names))
	for _, name := range names {
		im := IM(name)
		if !im.Valid() {
			return nil, fmt.Errorf("malformed IM identifier %q", name)
		}
		ims = append(ims, im)
	}
	return ims, nil
}
