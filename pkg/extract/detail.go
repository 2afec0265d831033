package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	detailAnchorRe = regexp.MustCompile(`(?i)Claim\s*#(\d+)`)
	lossRe         = regexp.MustCompile(`(?i)Total\s+Loss:\s*\$\s*([\d,.]+)`)
	expenseRe      = regexp.MustCompile(`(?i)Total\s+Expense:\s*\$\s*([\d,.]+)`)
	statusRe       = regexp.MustCompile(`(?i)Claim\s*Status:\s*(\w+)`)
)

// Detail holds the supplementary claim data found in detail blocks elsewhere
// in the document: financial totals and status, keyed by claim number.
// Amounts are stored with thousands separators removed.
type Detail struct {
	Number  int
	Loss    string
	Expense string
	Status  string
}

// DetailIndex maps claim number to its merged detail data.
type DetailIndex map[int]Detail

// IndexClaimDetails scans the whole document once for "Claim #<n>" blocks
// and indexes their financial totals and status by claim number. Summary and
// detail data for the same claim frequently live in separate, non-adjacent
// regions; indexing once replaces a per-record rescan of the full text.
// Blocks sharing a claim number merge, first populated value winning, since
// totals and status may arrive in different blocks.
func IndexClaimDetails(text string) DetailIndex {
	idx := make(DetailIndex)
	locs := detailAnchorRe.FindAllStringSubmatchIndex(text, -1)
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		num, err := strconv.Atoi(text[loc[2]:loc[3]])
		if err != nil {
			continue
		}
		block := text[loc[1]:end]

		d := idx[num]
		d.Number = num
		if d.Loss == "" {
			if m := lossRe.FindStringSubmatch(block); m != nil {
				d.Loss = strings.ReplaceAll(m[1], ",", "")
			}
		}
		if d.Expense == "" {
			if m := expenseRe.FindStringSubmatch(block); m != nil {
				d.Expense = strings.ReplaceAll(m[1], ",", "")
			}
		}
		if d.Status == "" {
			if m := statusRe.FindStringSubmatch(block); m != nil {
				d.Status = strings.TrimSpace(m[1])
			}
		}
		idx[num] = d
	}
	return idx
}

// Lookup returns the detail for a claim number, if any block mentioned it.
func (idx DetailIndex) Lookup(number int) (Detail, bool) {
	d, ok := idx[number]
	return d, ok
}
