// Package units formats values with SI prefixes for display labels:
// "2.50 mV", "1.25 kHz". It is a presentation helper and carries no
// state the pipeline depends on.
package units

import (
	"fmt"
	"math"
)

type prefix struct {
	factor float64
	symbol string
}

var prefixes = []prefix{
	{1e9, "G"},
	{1e6, "M"},
	{1e3, "k"},
	{1, ""},
	{1e-3, "m"},
	{1e-6, "µ"},
	{1e-9, "n"},
	{1e-12, "p"},
}

// Format renders v with the SI prefix that keeps the mantissa in
// [1, 1000) and two decimal places.
func Format(v float64, unit string) string {
	if v == 0 {
		return fmt.Sprintf("0.00 %s", unit)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprintf("%v %s", v, unit)
	}
	abs := math.Abs(v)
	for _, p := range prefixes {
		if abs >= p.factor {
			return fmt.Sprintf("%.2f %s%s", v/p.factor, p.symbol, unit)
		}
	}
	p := prefixes[len(prefixes)-1]
	return fmt.Sprintf("%.2f %s%s", v/p.factor, p.symbol, unit)
}
