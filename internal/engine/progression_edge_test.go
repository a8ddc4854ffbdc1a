package engine_test

// ── Advancement gating and parser edge cases ─────────────────────────────
//
// The pointer-advancement matrix deserves its own file: a wrongly proposed
// advance silently skips a round for every future applicant, and a wrongly
// suppressed one strands the drive. The core write-partitioning behaviour is
// covered in progression_test.go.

import (
	"testing"

	"campushire/placement-service/internal/engine"
)

// Reviewing a past round must never move the pointer, even when candidates
// were processed.
func TestApplyDecision_NoAdvanceWhenReviewingPastRound(t *testing.T) {
	job := threeRoundJob()
	job.CurrentRoundIndex = 2

	out, err := engine.ApplyDecision(job, []engine.Candidate{candidate("a", nil)}, engine.Decision{
		RoundIndex: 0,
		Action:     engine.ActionShortlist,
		Selected:   []string{"a"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.AdvanceRound {
		t.Error("decision for a past round must not propose advancement")
	}
}

// An all-reject pass processes nobody forward, so the round stays open.
func TestApplyDecision_NoAdvanceWithoutProcessedCandidates(t *testing.T) {
	job := threeRoundJob()
	out, err := engine.ApplyDecision(job, []engine.Candidate{candidate("a", nil), candidate("b", nil)}, engine.Decision{
		RoundIndex: 0,
		Action:     engine.ActionShortlist,
		Selected:   nil, // everyone in view is rejected
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.AdvanceRound {
		t.Error("advancement requires at least one shortlisted candidate")
	}
	for _, w := range out.Writes {
		if w.NewStatus != engine.StatusRejected {
			t.Errorf("want rejected for %s, got %q", w.CandidateID, w.NewStatus)
		}
	}
}

// Only shortlist and reject-remaining may move the pointer.
func TestApplyDecision_AdvanceOnlyForClosingActions(t *testing.T) {
	cases := []struct {
		action engine.Action
		want   bool
	}{
		{engine.ActionShortlist, true},
		{engine.ActionRejectRemaining, true},
		{engine.ActionSelect, false},
		{engine.ActionWaitlist, false},
		{engine.ActionReject, false},
	}
	for _, tc := range cases {
		job := threeRoundJob()
		out, err := engine.ApplyDecision(job, []engine.Candidate{candidate("a", nil)}, engine.Decision{
			RoundIndex: 0,
			Action:     tc.action,
			Selected:   []string{"a"},
		})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.action, err)
		}
		if out.AdvanceRound != tc.want {
			t.Errorf("action %s: AdvanceRound = %v, want %v", tc.action, out.AdvanceRound, tc.want)
		}
	}
}

// Selected IDs that are not in the snapshot are ignored rather than
// fabricated into writes.
func TestApplyDecision_UnknownSelectedIDsIgnored(t *testing.T) {
	job := threeRoundJob()
	out, err := engine.ApplyDecision(job, []engine.Candidate{candidate("a", nil)}, engine.Decision{
		RoundIndex: 0,
		Action:     engine.ActionShortlist,
		Selected:   []string{"a", "ghost"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, w := range out.Writes {
		if w.CandidateID == "ghost" {
			t.Errorf("write produced for a candidate missing from the snapshot: %+v", w)
		}
	}
}

// A candidate selected in an earlier round keeps counting as selected.
func TestCountApplicants_SelectedInAnyRound(t *testing.T) {
	job := threeRoundJob()
	all := []engine.Candidate{
		candidate("early", map[string]engine.Status{"Aptitude": engine.StatusSelected}),
		candidate("late", map[string]engine.Status{
			"Aptitude": engine.StatusShortlisted, "Technical": engine.StatusShortlisted, "HR": engine.StatusSelected,
		}),
		candidate("none", map[string]engine.Status{"Aptitude": engine.StatusRejected}),
	}
	counts := engine.CountApplicants(job, all)
	if counts.Selected != 2 {
		t.Errorf("Selected = %d, want 2 (any round key counts)", counts.Selected)
	}
	if counts.Rounds[0] != 3 {
		t.Errorf("Rounds[0] = %d, want all 3 candidates", counts.Rounds[0])
	}
	if counts.Rounds[1] != 1 {
		t.Errorf("Rounds[1] = %d, want 1 (only \"late\" was shortlisted in Aptitude)", counts.Rounds[1])
	}
}

// Counts use the same key resolution as writes: a drifted label still feeds
// the previous-round check.
func TestCountApplicants_ResolvesDriftedKeys(t *testing.T) {
	job := engine.JobPosting{Rounds: []engine.Round{{Name: "Shortlist"}, {Name: "Interview"}}}
	all := []engine.Candidate{
		candidate("a", map[string]engine.Status{"Shortlisting": engine.StatusShortlisted}),
	}
	counts := engine.CountApplicants(job, all)
	if counts.Rounds[1] != 1 {
		t.Errorf("Rounds[1] = %d, want 1 (synonym should resolve)", counts.Rounds[1])
	}
}

// ── Parsers ──────────────────────────────────────────────────────────────

func TestParseStatus(t *testing.T) {
	valid := []string{"pending", "shortlisted", "waitlisted", "rejected", "selected"}
	for _, s := range valid {
		got, err := engine.ParseStatus(s)
		if err != nil {
			t.Errorf("ParseStatus(%q) unexpected error: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseStatus(%q) = %q", s, got)
		}
	}
	for _, s := range []string{"", "Pending", "SHORTLISTED", "hired"} {
		if _, err := engine.ParseStatus(s); err == nil {
			t.Errorf("ParseStatus(%q) should fail", s)
		}
	}
}

func TestParseAction(t *testing.T) {
	valid := []string{"shortlist", "select", "waitlist", "reject", "reject-remaining"}
	for _, s := range valid {
		got, err := engine.ParseAction(s)
		if err != nil {
			t.Errorf("ParseAction(%q) unexpected error: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseAction(%q) = %q", s, got)
		}
	}
	for _, s := range []string{"", "Shortlist", "reject remaining", "advance"} {
		if _, err := engine.ParseAction(s); err == nil {
			t.Errorf("ParseAction(%q) should fail", s)
		}
	}
}
