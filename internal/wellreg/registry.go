// Package wellreg builds the per-well reference table every scorer joins
// against.
package wellreg

import (
	"github.com/markusj1201/SoHa-Priorities/internal/model"
)

// Registry is the read-only well reference table with lookup indexes on
// the two identity keys.
type Registry struct {
	wells  []model.WellReference
	byAPI  map[string][]int
	byCorp map[string][]int
}

// New indexes wells. The slice is copied.
func New(wells []model.WellReference) *Registry {
	r := &Registry{
		wells:  append([]model.WellReference(nil), wells...),
		byAPI:  make(map[string][]int, len(wells)),
		byCorp: make(map[string][]int, len(wells)),
	}
	for i, w := range r.wells {
		r.byAPI[w.API10] = append(r.byAPI[w.API10], i)
		r.byCorp[w.CorpID] = append(r.byCorp[w.CorpID], i)
	}
	return r
}

// Len returns the number of wells.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.wells)
}

// Wells returns a copy of every well in build order.
func (r *Registry) Wells() []model.WellReference {
	if r == nil {
		return nil
	}
	return append([]model.WellReference(nil), r.wells...)
}

// ByAPI10 returns the wells whose API10 equals key, in build order.
func (r *Registry) ByAPI10(key string) []model.WellReference {
	return r.pick(r.byAPI[model.API10(key)])
}

// ByCorpID returns the wells whose Corp_ID equals key, in build order.
func (r *Registry) ByCorpID(key string) []model.WellReference {
	return r.pick(r.byCorp[key])
}

// WithoutRoute returns a copy with every Route cleared, for feeds that
// carry their own routing.
func (r *Registry) WithoutRoute() *Registry {
	wells := r.Wells()
	for i := range wells {
		wells[i].Route = ""
	}
	return New(wells)
}

func (r *Registry) pick(idx []int) []model.WellReference {
	if len(idx) == 0 {
		return nil
	}
	out := make([]model.WellReference, len(idx))
	for i, j := range idx {
		out[i] = r.wells[j]
	}
	return out
}
