package dispatch

import (
	"enricher/internal/domainset"
	"enricher/pkg/domain"
	"slices"
	"sync"
)

// ResultSet collects the input domains reported back by the provider. It is
// safe for concurrent use and only ever grows.
type ResultSet struct {
	mu      sync.Mutex
	domains map[string]struct{}
}

// NewResultSet returns an empty ResultSet.
func NewResultSet() *ResultSet {
	return &ResultSet{domains: make(map[string]struct{})}
}

// Absorb merges a batch outcome into the set. Only successful outcomes
// contribute: for every record the related domains are normalized and those
// present in valid are inserted. It returns the number of newly added domains.
func (r *ResultSet) Absorb(outcome domain.Outcome, valid *domainset.Set) int {
	if outcome.Kind != domain.OutcomeSucceeded {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	added := 0
	for _, rec := range outcome.Records {
		for _, d := range rec.Related() {
			d = domainset.Normalize(d)
			if !valid.Contains(d) {
				continue
			}
			if _, ok := r.domains[d]; ok {
				continue
			}
			r.domains[d] = struct{}{}
			added++
		}
	}

	return added
}

// Len returns the number of collected domains.
func (r *ResultSet) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.domains)
}

// Domains returns a sorted snapshot of the collected domains.
func (r *ResultSet) Domains() []string {
	r.mu.Lock()
	out := make([]string, 0, len(r.domains))
	for d := range r.domains {
		out = append(out, d)
	}
	r.mu.Unlock()

	slices.Sort(out)

	return out
}
