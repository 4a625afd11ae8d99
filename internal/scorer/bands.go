package scorer

import (
	"math"

	"github.com/markusj1201/SoHa-Priorities/internal/model"
)

// Band maps the half-open interval [Lo, Hi) to a severity and a
// description prefix.
type Band struct {
	Lo, Hi   float64
	Severity model.Severity
	Label    string
}

// Bands is an ascending, non-overlapping partition of a value range.
type Bands []Band

// Lookup returns the band containing v. NaN matches nothing.
func (bs Bands) Lookup(v float64) (Band, bool) {
	if math.IsNaN(v) {
		return Band{}, false
	}
	for _, b := range bs {
		if v >= b.Lo && v < b.Hi {
			return b, true
		}
	}
	return Band{}, false
}

// Rule assigns Severity when When holds.
type Rule[T any] struct {
	When     func(T) bool
	Severity model.Severity
}

// LastMatch evaluates every rule in order and returns the severity of the
// last one that holds, or SeverityUnset.
func LastMatch[T any](rules []Rule[T], v T) model.Severity {
	sev := model.SeverityUnset
	for _, r := range rules {
		if r.When(v) {
			sev = r.Severity
		}
	}
	return sev
}

var (
	negInf = math.Inf(-1)
	posInf = math.Inf(1)
)
