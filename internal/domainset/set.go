// Package domainset turns the raw domain list into the validated, deduplicated
// set submitted to the enrichment provider, and persists the final matches.
package domainset

import (
	"context"
	"enricher/pkg/logger"

	"go.uber.org/zap"
)

// Set is an immutable set of canonical domains. Membership is O(1) and
// iteration follows first-insertion order, so the batch partition is stable
// for the lifetime of the set.
type Set struct {
	members map[string]struct{}
	order   []string
}

// NewSet builds a Set from already canonical domains, dropping duplicates.
func NewSet(domains ...string) *Set {
	s := &Set{members: make(map[string]struct{}, len(domains))}
	for _, d := range domains {
		s.add(d)
	}

	return s
}

func (s *Set) add(d string) bool {
	if _, ok := s.members[d]; ok {
		return false
	}
	s.members[d] = struct{}{}
	s.order = append(s.order, d)

	return true
}

// Contains reports whether d is a member of the set.
func (s *Set) Contains(d string) bool {
	if s == nil {
		return false
	}
	_, ok := s.members[d]

	return ok
}

// Len returns the number of members.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}

	return len(s.order)
}

// Domains returns the members in iteration order. The returned slice must
// not be modified.
func (s *Set) Domains() []string {
	if s == nil {
		return nil
	}

	return s.order
}

// BuildStats summarises how the raw input was filtered.
type BuildStats struct {
	Total      int
	NonString  int
	Invalid    int
	Duplicates int
}

// Build normalizes, validates and deduplicates raw input values. Elements
// that are not strings are skipped with a warning; invalid domains are
// dropped. Build never fails: an input without valid domains yields an
// empty set.
func Build(ctx context.Context, raw []any) (*Set, BuildStats) {
	stats := BuildStats{Total: len(raw)}
	s := NewSet()

	for i, v := range raw {
		str, ok := v.(string)
		if !ok {
			stats.NonString++
			logger.Warn(ctx, "non-string domain skipped", zap.Int("index", i), zap.Any("value", v))

			continue
		}

		d := Normalize(str)
		if !IsValid(d) {
			stats.Invalid++
			logger.Debug(ctx, "invalid domain skipped", zap.Int("index", i), zap.String("domain", str))

			continue
		}

		if !s.add(d) {
			stats.Duplicates++
		}
	}

	logger.Info(ctx, "domain list validated",
		zap.Int("total", stats.Total),
		zap.Int("valid", s.Len()),
		zap.Int("nonString", stats.NonString),
		zap.Int("invalid", stats.Invalid),
		zap.Int("duplicates", stats.Duplicates))

	return s, stats
}
