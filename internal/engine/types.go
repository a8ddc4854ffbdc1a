// Package engine implements the eligibility checks and the round-progression
// state machine for placement drives.
//
// Everything in this package is a pure computation over snapshots supplied by
// the caller: no database, no Redis, no clock. The service layer owns all I/O.
package engine

import "fmt"

// Status is a candidate's state for one hiring round.
type Status string

const (
	StatusPending     Status = "pending"
	StatusShortlisted Status = "shortlisted"
	StatusWaitlisted  Status = "waitlisted"
	StatusRejected    Status = "rejected"
	StatusSelected    Status = "selected"
)

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusPending, StatusShortlisted, StatusWaitlisted, StatusRejected, StatusSelected:
		return st, nil
	}
	return "", fmt.Errorf("unknown round status %q", s)
}

// Action is an operator decision applied to a round.
type Action string

const (
	ActionShortlist       Action = "shortlist"
	ActionSelect          Action = "select"
	ActionWaitlist        Action = "waitlist"
	ActionReject          Action = "reject"
	ActionRejectRemaining Action = "reject-remaining"
)

// ParseAction converts a raw string to an Action, returning an error for
// unknown values.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	switch a {
	case ActionShortlist, ActionSelect, ActionWaitlist, ActionReject, ActionRejectRemaining:
		return a, nil
	}
	return "", fmt.Errorf("unknown decision action %q", s)
}

// Candidate is one student's profile snapshot as read from the store.
// RoundStatus maps round label → status for the job being evaluated.
type Candidate struct {
	ID             string
	CGPA           float64
	Skills         []string
	Batch          string
	Gender         string
	CurrentArrears int
	HistoryArrears int
	RoundStatus    map[string]Status
}

// Round is one stage in a job's hiring workflow.
type Round struct {
	Name string
}

// JobPosting defines admission criteria and the ordered hiring workflow.
// Zero values mean "unset": MinCGPA 0 and arrear limits 0 impose no
// requirement, empty RequiredSkills/EligibleBatches match everyone.
type JobPosting struct {
	MinCGPA           float64
	RequiredSkills    []string
	EligibleBatches   []string
	GenderPreference  string
	MaxCurrentArrears int
	MaxHistoryArrears int
	Rounds            []Round
	CurrentRoundIndex int
}

// Decision is one operator-submitted batch for a single round.
//
// Selected holds the explicitly chosen candidate IDs. View holds the IDs of
// the filtered list the operator was looking at when they submitted; an empty
// View means every candidate in the snapshot. For round-closing actions
// (shortlist, select, reject-remaining) everyone in the view who was not
// selected is rejected.
type Decision struct {
	RoundIndex int
	Action     Action
	Selected   []string
	View       []string
}

// StatusWrite is one per-candidate round-status update. Writes are
// last-write-wins on (CandidateID, RoundKey): applying the same write twice
// leaves the same final state.
type StatusWrite struct {
	CandidateID string `json:"candidateId"`
	RoundKey    string `json:"roundKey"`
	NewStatus   Status `json:"newStatus"`
}

// ApplicantCounts is the derived per-round population read-model.
// Rounds is indexed like JobPosting.Rounds: index 0 counts all candidates,
// index i>0 counts candidates shortlisted in round i-1. Selected counts
// candidates holding a selected status under any round key.
//
// Counts are always recomputed from candidate data, never accumulated.
type ApplicantCounts struct {
	Rounds   []int `json:"rounds"`
	Selected int   `json:"selected"`
}

// Outcome is the result of applying one Decision.
type Outcome struct {
	Writes []StatusWrite `json:"writes"`

	// AdvanceRound reports whether the job's current-round pointer should
	// move to NextRoundIndex / NextRoundName.
	AdvanceRound   bool   `json:"advanceRound"`
	NextRoundIndex int    `json:"nextRoundIndex"`
	NextRoundName  string `json:"nextRoundName"`

	Counts ApplicantCounts `json:"counts"`
}

// InvalidJobError reports a job or decision configuration the engine cannot
// act on: a job with no rounds, an out-of-range round index, or an unknown
// action. No writes are ever produced alongside it.
type InvalidJobError struct {
	Msg string
}

func (e *InvalidJobError) Error() string { return e.Msg }
