package research

import (
	"fmt"
	"math"
)

// Percent is a percentage value, 12.5 means 12.5%.
type Percent float64

func (p Percent) String() string { return fmtPercent("%.2f%%", float64(p)) }

// SignedString returns the percentage with its sign, 0 is represented as "-".
func (p Percent) SignedString() string {
	res := fmtPercent("%+.2f%%", float64(p))
	if res == "+0.00%" {
		return "-"
	}
	return res
}

// fmtPercent formats a percentage, NaN are rendered as "n/a".
func fmtPercent(format string, v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf(format, v)
}
