// Round progression for a placement drive.
//
// A job's rounds form an ordered pipeline. Per candidate, per round:
//
//	pending ──► shortlisted | waitlisted | rejected
//	shortlisted on the final round ──► selected
//
// rejected and selected are absorbing for their round; advancing the job
// pointer re-enters the next round at pending.
package engine

import "fmt"

// ApplyDecision computes the status writes, the optional job-pointer
// advancement, and the refreshed applicant counts for one operator decision.
//
// The function is side-effect-free: it never mutates job or candidates, and
// callers are expected to commit the returned writes atomically. Re-running
// it against the same snapshot yields identical output, so a retried commit
// cannot double-apply anything.
func ApplyDecision(job JobPosting, candidates []Candidate, d Decision) (*Outcome, error) {
	if len(job.Rounds) == 0 {
		return nil, &InvalidJobError{Msg: "job has no rounds configured"}
	}
	if d.RoundIndex < 0 || d.RoundIndex >= len(job.Rounds) {
		return nil, &InvalidJobError{Msg: fmt.Sprintf("round index %d is out of range (job has %d rounds)", d.RoundIndex, len(job.Rounds))}
	}
	if _, err := ParseAction(string(d.Action)); err != nil {
		return nil, &InvalidJobError{Msg: err.Error()}
	}

	currentRound := job.Rounds[d.RoundIndex].Name
	isFinal := d.RoundIndex >= len(job.Rounds)-1

	selected := idSet(d.Selected)
	inView := func(id string) bool { return true }
	if len(d.View) > 0 {
		view := idSet(d.View)
		inView = func(id string) bool { return view[id] }
	}

	out := &Outcome{}
	processed := 0

	// Candidate order drives write order, so output is stable.
	for _, c := range candidates {
		var next Status
		switch d.Action {
		case ActionShortlist, ActionSelect, ActionRejectRemaining:
			// Round-closing actions force a binary outcome over the
			// operator's view: nobody in it stays pending.
			switch {
			case selected[c.ID]:
				if isFinal || d.Action == ActionSelect {
					next = StatusSelected
				} else {
					next = StatusShortlisted
				}
				processed++
			case inView(c.ID):
				next = StatusRejected
			default:
				continue
			}
		case ActionWaitlist:
			if !selected[c.ID] {
				continue
			}
			next = StatusWaitlisted
		case ActionReject:
			if !selected[c.ID] {
				continue
			}
			next = StatusRejected
		}

		key, ok := ResolveKey(currentRound, c.RoundStatus)
		if !ok {
			// First-ever status for this round on this candidate: the
			// one sanctioned case of key creation.
			key = currentRound
		}
		out.Writes = append(out.Writes, StatusWrite{CandidateID: c.ID, RoundKey: key, NewStatus: next})
	}

	// The pointer only moves when this decision closes the job's actual
	// current round; reviewing a past round must never regress state.
	if d.RoundIndex == job.CurrentRoundIndex &&
		processed > 0 &&
		!isFinal &&
		(d.Action == ActionShortlist || d.Action == ActionRejectRemaining) {
		out.AdvanceRound = true
		out.NextRoundIndex = d.RoundIndex + 1
		out.NextRoundName = job.Rounds[out.NextRoundIndex].Name
	}

	out.Counts = countWithWrites(job, candidates, out.Writes)
	return out, nil
}

// CountApplicants rebuilds the ApplicantCounts read-model from scratch by
// scanning the candidate list. It is the source of truth for counts: any
// cached copy must be reproducible by calling it again.
func CountApplicants(job JobPosting, candidates []Candidate) ApplicantCounts {
	return countWithWrites(job, candidates, nil)
}

// countWithWrites counts applicants as if writes had already been committed,
// without mutating the candidate snapshots.
func countWithWrites(job JobPosting, candidates []Candidate, writes []StatusWrite) ApplicantCounts {
	overlay := make(map[string]map[string]Status)
	for _, w := range writes {
		m := overlay[w.CandidateID]
		if m == nil {
			m = make(map[string]Status)
			overlay[w.CandidateID] = m
		}
		m[w.RoundKey] = w.NewStatus
	}

	statusFor := func(c Candidate, roundName string) (Status, bool) {
		// The overlay takes precedence for keys it covers.
		if m := overlay[c.ID]; m != nil {
			if key, ok := ResolveKey(roundName, m); ok {
				return m[key], true
			}
		}
		if key, ok := ResolveKey(roundName, c.RoundStatus); ok {
			if m := overlay[c.ID]; m != nil {
				if s, ok := m[key]; ok {
					return s, true
				}
			}
			return c.RoundStatus[key], true
		}
		return "", false
	}

	counts := ApplicantCounts{Rounds: make([]int, len(job.Rounds))}

	for i := range job.Rounds {
		if i == 0 {
			counts.Rounds[0] = len(candidates)
			continue
		}
		prev := job.Rounds[i-1].Name
		for _, c := range candidates {
			if s, ok := statusFor(c, prev); ok && s == StatusShortlisted {
				counts.Rounds[i]++
			}
		}
	}

	for _, c := range candidates {
		if hasSelected(c, overlay[c.ID]) {
			counts.Selected++
		}
	}

	return counts
}

// hasSelected reports whether any round key carries a selected status,
// considering pending writes first.
func hasSelected(c Candidate, pending map[string]Status) bool {
	for key, s := range c.RoundStatus {
		if w, ok := pending[key]; ok {
			s = w
		}
		if s == StatusSelected {
			return true
		}
	}
	for key, s := range pending {
		if _, exists := c.RoundStatus[key]; !exists && s == StatusSelected {
			return true
		}
	}
	return false
}

func idSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
