// Package hostname implements the allowlist membership test used by the
// proxy core to decide whether a resolved name should trigger route
// installation: a queried name matches if any suffix of its labels is
// present in the configured set, per spec.md §4.4.
package hostname

import (
	"strings"

	"github.com/dnsscience/splitdns/internal/dnswire"
)

// ParseName splits dot-separated text ("example.com") into a QName. A
// trailing "." (fully-qualified notation) is tolerated and ignored.
func ParseName(text string) dnswire.QName {
	text = strings.TrimSuffix(text, ".")
	if text == "" {
		return dnswire.QName{}
	}
	parts := strings.Split(text, ".")
	name := make(dnswire.QName, len(parts))
	for i, p := range parts {
		name[i] = []byte(p)
	}
	return name
}

// Set is a collection of allowlisted names, matched by suffix containment.
// It is not safe for concurrent use; callers serialize access the same way
// the proxy core serializes all other mutable state.
type Set struct {
	members map[string]struct{}
}

// NewSet builds a Set from an initial collection of names.
func NewSet(names []dnswire.QName) *Set {
	s := &Set{members: make(map[string]struct{}, len(names))}
	for _, n := range names {
		s.members[n.Key()] = struct{}{}
	}
	return s
}

// Add inserts a name into the set.
func (s *Set) Add(name dnswire.QName) {
	s.members[name.Key()] = struct{}{}
}

// Contains reports whether name itself (not any suffix of it) is a member.
func (s *Set) Contains(name dnswire.QName) bool {
	_, ok := s.members[name.Key()]
	return ok
}

// Matches reports whether any suffix of name -- from the full name down to
// its last label -- is present in the set. On a match, the full queried
// name is memoized into the set so repeat lookups short-circuit at the
// first suffix probed, per spec.md §4.4 and §3 (HostnameSet memoizes hits).
func (s *Set) Matches(name dnswire.QName) bool {
	for _, suffix := range name.Suffixes() {
		if _, ok := s.members[suffix.Key()]; ok {
			s.Add(name)
			return true
		}
	}
	return false
}

// Len returns the number of distinct names currently held, including any
// memoized from prior matches.
func (s *Set) Len() int { return len(s.members) }
