// Package grid implements the 5e-style grid distance arithmetic used by the
// hover-distance overlay. Everything here is pure; grid metadata and
// rounding policy come from the caller.
package grid

import "math"

// RoundMode selects how measured values snap to a step.
type RoundMode string

const (
	RoundNearest RoundMode = "nearest"
	RoundFloor   RoundMode = "floor"
	RoundCeil    RoundMode = "ceil"
)

// Spaces returns the movement cost in grid spaces for a row/column offset
// under the alternating diagonal rule: every second diagonal step costs two
// spaces, so a pair of diagonals costs 3 and an odd diagonal costs 1 extra.
func Spaces(dx, dy int) int {
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	diag := min(dx, dy)
	straight := max(dx, dy) - diag
	return diag/2*3 + diag%2 + straight
}

// Rect is a grid-aligned footprint: the cells [X, X+W) x [Y, Y+H).
type Rect struct {
	X, Y, W, H int
}

// MinSpaces returns the smallest space count between any cell of a and any
// cell of b. Empty rects are treated as 1x1.
func MinSpaces(a, b Rect) int {
	a, b = a.normalized(), b.normalized()
	best := math.MaxInt
	for ax := a.X; ax < a.X+a.W; ax++ {
		for ay := a.Y; ay < a.Y+a.H; ay++ {
			for bx := b.X; bx < b.X+b.W; bx++ {
				for by := b.Y; by < b.Y+b.H; by++ {
					if sp := Spaces(bx-ax, by-ay); sp < best {
						best = sp
					}
				}
			}
		}
	}
	return best
}

// RoundToStep snaps value to a multiple of step. A non-positive or
// non-finite step disables snapping and returns the value rounded to three
// decimals, matching the overlay's label precision.
func RoundToStep(value, step float64, mode RoundMode) float64 {
	if !(step > 0) || math.IsInf(step, 0) {
		return roundPrec(value)
	}
	q := value / step
	var r float64
	switch mode {
	case RoundFloor:
		r = math.Floor(q)
	case RoundCeil:
		r = math.Ceil(q)
	default:
		r = math.Round(q)
	}
	return roundPrec(r * step)
}

// StepSource selects where the snapping step comes from.
type StepSource string

const (
	StepNone   StepSource = "none"
	StepCell   StepSource = "cell"
	StepCustom StepSource = "custom"
)

// ComputeStep resolves the snapping step for a scene whose cells span
// gridDistance units. A zero step means no snapping.
func ComputeStep(src StepSource, gridDistance, fraction, custom float64) float64 {
	switch src {
	case StepNone:
		return 0
	case StepCustom:
		if custom > 0 && !math.IsInf(custom, 0) && !math.IsNaN(custom) {
			return custom
		}
		return gridDistance
	default:
		if !(fraction > 0) || math.IsInf(fraction, 0) || math.IsNaN(fraction) {
			fraction = 1
		}
		return gridDistance * fraction
	}
}

func (r Rect) normalized() Rect {
	if r.W < 1 {
		r.W = 1
	}
	if r.H < 1 {
		r.H = 1
	}
	return r
}

func roundPrec(v float64) float64 {
	return math.Round(v*1000) / 1000
}
