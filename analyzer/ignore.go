package analyzer

import (
	"strings"

	"github.com/hannajonsd/bundle-audit/advisory"
)

// IgnoreSet holds advisory identifiers that must not be reported
type IgnoreSet map[string]struct{}

// NewIgnoreSet builds a set from identifiers such as CVE-2013-0156 or GHSA-xxxx-xxxx-xxxx
func NewIgnoreSet(ids ...string) IgnoreSet {
	set := make(IgnoreSet, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

func (s IgnoreSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Matches reports whether the advisory ID or one of its aliases is ignored
func (s IgnoreSet) Matches(adv *advisory.Advisory) bool {
	if len(s) == 0 {
		return false
	}
	for _, id := range adv.Identifiers() {
		if s.Contains(id) {
			return true
		}
	}
	return false
}
