// Package version compares dotted-numeric bundle version strings.
package version

import (
	"strconv"
	"strings"

	"OtaUpdateServer/internal/model"
)

// Normalize maps the "no bundle installed" sentinel to the zero version so
// any published bundle compares as newer than built-in assets.
func Normalize(v string) string {
	if v == "" || v == model.SentinelVersion {
		return "0.0.0"
	}
	return v
}

// Compare returns -1, 0 or 1 ordering a against b. Versions are split on
// dots, each segment parsed as a non-negative integer (missing or
// non-numeric segments count as zero) and compared segment by segment.
func Compare(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")

	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}

	for i := 0; i < n; i++ {
		av := segment(as, i)
		bv := segment(bs, i)
		if av < bv {
			return -1
		}
		if av > bv {
			return 1
		}
	}

	return 0
}

// Newer reports whether candidate is strictly newer than current, after
// sentinel normalization. Equal versions are never an update.
func Newer(candidate, current string) bool {
	return Compare(Normalize(candidate), Normalize(current)) > 0
}

func segment(parts []string, i int) int {
	if i >= len(parts) {
		return 0
	}
	v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
	if err != nil || v < 0 {
		return 0
	}
	return v
}
