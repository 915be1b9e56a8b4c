package calc

import (
	"sync"
	"time"

	"golang.org/x/text/language"
)

// Registry holds one Calculator per owner and forgets the idle ones.
type Registry struct {
	now func() time.Time

	mu    sync.Mutex
	calcs map[string]*entry
}

type entry struct {
	calc     *Calculator
	lastUsed time.Time
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{now: time.Now, calcs: make(map[string]*entry)}
}

// Get returns owner's calculator, creating it with the language from lang
// on first use. lang is called without the registry lock held.
func (r *Registry) Get(owner string, lang func() language.Tag) *Calculator {
	r.mu.Lock()
	if e, ok := r.calcs[owner]; ok {
		e.lastUsed = r.now()
		r.mu.Unlock()
		return e.calc
	}
	r.mu.Unlock()

	c := New(lang())

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.calcs[owner]; ok {
		e.lastUsed = r.now()
		return e.calc
	}
	r.calcs[owner] = &entry{calc: c, lastUsed: r.now()}
	return c
}

// Sweep forgets calculators unused for longer than ttl and returns how
// many it removed.
func (r *Registry) Sweep(ttl time.Duration) int {
	cutoff := r.now().Add(-ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for owner, e := range r.calcs {
		if e.lastUsed.Before(cutoff) {
			delete(r.calcs, owner)
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calcs)
}
