package desim

import (
	"strconv"
	"strings"
)

// formatFloat renders f the way Python's str(float) does: shortest
// round-tripping representation, always with a decimal point. EventTime
// always stores its Time as a float64 internally (mirroring the source's
// self.time = float(time)), so its String method needs this rather than
// Go's bare %v, which drops the ".0" on whole numbers.
func formatFloat(f float64) string {
	// Python switches to exponent form below 1e-4 and from 1e16 upward;
	// strconv's 'g' would already switch at 1e6.
	abs := f
	if abs < 0 {
		abs = -abs
	}
	format := byte('e')
	if abs == 0 || (abs >= 1e-4 && abs < 1e16) {
		format = 'f'
	}
	s := strconv.FormatFloat(f, format, -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
