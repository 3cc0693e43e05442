// Package indicator provides technical indicator calculations over price
// series.
//
// All functions are pure: no I/O, no shared state, deterministic for a given
// input series. Output slices are index-aligned with the input (out[i]
// corresponds to series[i]). Positions where an indicator is not yet
// computable carry NaN as an explicit undefined marker; callers detect it
// with Defined() and decide how to default it. NaN never silently leaks into
// arithmetic here — every formula either produces a finite value or the
// marker itself.
package indicator

import "math"

// Undefined is the marker carried by output cells before an indicator's
// warmup window has filled.
func Undefined() float64 { return math.NaN() }

// Defined reports whether v is a computed value rather than the undefined
// marker.
func Defined(v float64) bool { return !math.IsNaN(v) }
