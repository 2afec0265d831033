// Package dates normalizes the date formats found in driver-history reports
// to a single canonical output format.
package dates

import (
	"strings"
	"time"
)

// Canonical is the output layout every recognized date is reformatted to.
const Canonical = "01/02/2006"

// inputLayouts is the fixed trial order for input dates. Month-first layouts
// are tried before day-first ones, so an ambiguous string like "03/04/2020"
// always reads as March 4th, the source reports' dominant convention.
// Reordering changes how every ambiguous date is read.
var inputLayouts = []string{
	"01/02/2006", "01-02-2006",
	"01/02/06", "01-02-06",
	"02/01/2006", "02-01-2006",
	"2006-01-02", "2006/01/02",
}

// Normalize converts a date string in any recognized format to MM/DD/YYYY.
// Unrecognized input is returned unchanged; Normalize never fails.
func Normalize(s string) string {
	trimmed := strings.TrimSpace(s)
	for _, layout := range inputLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format(Canonical)
		}
	}
	return s
}

// IsCanonical reports whether s already has the canonical MM/DD/YYYY shape.
func IsCanonical(s string) bool {
	_, err := time.Parse(Canonical, s)
	return err == nil && len(s) == len(Canonical)
}
