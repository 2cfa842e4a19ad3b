// Package natsort implements natural ordering for archive entry names, so
// "page2.jpg" sorts before "page10.jpg".
package natsort

import (
	"sort"
	"strings"
)

// Less reports whether a orders before b, comparing runs of digits
// numerically and everything else byte-wise, case-insensitively.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}

// Compare returns -1, 0, or 1 depending on natural order.
func Compare(a, b string) int {
	a = strings.ToLower(a)
	b = strings.ToLower(b)

	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ca, cb := a[i], b[j]

		if isDigit(ca) && isDigit(cb) {
			// Compare whole digit runs numerically. Leading zeros are
			// skipped so "002" equals "2"; shorter significant runs are
			// smaller.
			si, sj := i, j
			for i < len(a) && isDigit(a[i]) {
				i++
			}
			for j < len(b) && isDigit(b[j]) {
				j++
			}
			na := strings.TrimLeft(a[si:i], "0")
			nb := strings.TrimLeft(b[sj:j], "0")
			if len(na) != len(nb) {
				if len(na) < len(nb) {
					return -1
				}
				return 1
			}
			if na != nb {
				if na < nb {
					return -1
				}
				return 1
			}
			continue
		}

		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
		i++
		j++
	}

	switch {
	case len(a)-i < len(b)-j:
		return -1
	case len(a)-i > len(b)-j:
		return 1
	default:
		return 0
	}
}

// Strings sorts the slice in natural order in place.
func Strings(items []string) {
	sort.Slice(items, func(i, j int) bool {
		return Less(items[i], items[j])
	})
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
