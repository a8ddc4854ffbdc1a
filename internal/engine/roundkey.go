package engine

import (
	"sort"
	"strings"
)

// Round labels drift across records ("Shortlisting" vs "shortlist round"),
// and a status written under a second spelling of the same round corrupts the
// previous-round check that gates later rounds. ResolveKey is the single
// authoritative matching policy: every caller that touches a round-status map
// goes through it instead of rolling its own comparison.

// synonyms rewrites known label variants to a canonical token. The list is
// deliberately short; fabricating broader rules risks matching two genuinely
// different rounds, which is worse than a missed match.
var synonyms = map[string]string{
	"shortlisting":    "shortlist",
	"interview round": "interview",
}

// ResolveKey maps the canonical round name from the job definition to the key
// already present in a candidate's round-status map. It returns ok=false when
// no existing key matches; callers must not invent a new key on an update —
// the only sanctioned fallback is using the desired name verbatim when the
// candidate has no record for the round at all.
//
// Matching is conservative and first-match-wins: an exact case-insensitive
// trimmed comparison, then the normalized comparison. A miss is preferred
// over a false positive that would overwrite the wrong round.
func ResolveKey(desired string, statuses map[string]Status) (string, bool) {
	// Map iteration order is random; sort so repeated calls resolve the
	// same key even when several keys would match.
	keys := make([]string, 0, len(statuses))
	for key := range statuses {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	want := strings.ToLower(strings.TrimSpace(desired))
	for _, key := range keys {
		if strings.ToLower(strings.TrimSpace(key)) == want {
			return key, true
		}
	}

	wantNorm := normalizeRoundLabel(desired)
	for _, key := range keys {
		if normalizeRoundLabel(key) == wantNorm {
			return key, true
		}
	}

	return "", false
}

// normalizeRoundLabel lowercases, trims, collapses internal whitespace runs
// to a single space, and applies the synonym rewrites.
func normalizeRoundLabel(label string) string {
	s := strings.ToLower(strings.TrimSpace(label))
	s = strings.Join(strings.Fields(s), " ")
	if canonical, ok := synonyms[s]; ok {
		return canonical
	}
	return s
}
