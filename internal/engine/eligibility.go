package engine

import (
	"fmt"
	"math"
	"strings"
)

// IsEligible reports whether the candidate satisfies every admission
// criterion of the job. Unset criteria (zero values, empty sets) always pass.
func IsEligible(c Candidate, job JobPosting) bool {
	return len(EligibilityReasons(c, job)) == 0
}

// EligibilityReasons returns one human-readable message per failed criterion,
// suitable for showing a candidate why they cannot apply. An empty slice
// means the candidate is eligible.
//
// Incomplete profile data never fails the call: missing numerics count as 0
// and missing strings as empty, then the criteria apply as usual.
func EligibilityReasons(c Candidate, job JobPosting) []string {
	var reasons []string

	if job.MinCGPA > 0 && safeCGPA(c.CGPA) < job.MinCGPA {
		reasons = append(reasons, fmt.Sprintf("CGPA requirement not met: need %.2f, have %.2f", job.MinCGPA, safeCGPA(c.CGPA)))
	}

	if missing := missingSkills(c.Skills, job.RequiredSkills); len(missing) > 0 {
		reasons = append(reasons, fmt.Sprintf("missing required skills: %s", strings.Join(missing, ", ")))
	}

	if len(job.EligibleBatches) > 0 && !batchMatches(c.Batch, job.EligibleBatches) {
		reasons = append(reasons, fmt.Sprintf("batch %q is not eligible for this job", c.Batch))
	}

	if !genderMatches(c.Gender, job.GenderPreference) {
		reasons = append(reasons, "job is restricted to a different gender preference")
	}

	if job.MaxCurrentArrears > 0 && safeArrears(c.CurrentArrears) > job.MaxCurrentArrears {
		reasons = append(reasons, fmt.Sprintf("current arrears %d exceed the limit of %d", c.CurrentArrears, job.MaxCurrentArrears))
	}

	if job.MaxHistoryArrears > 0 && safeArrears(c.HistoryArrears) > job.MaxHistoryArrears {
		reasons = append(reasons, fmt.Sprintf("history of arrears %d exceeds the limit of %d", c.HistoryArrears, job.MaxHistoryArrears))
	}

	return reasons
}

// HasAnySkill reports whether the candidate has at least one of the job's
// required skills (case-insensitive). This is the broad audience filter used
// when notifying students about a new posting — deliberately looser than the
// conjunctive check inside EligibilityReasons, which requires every skill.
func HasAnySkill(c Candidate, job JobPosting) bool {
	if len(job.RequiredSkills) == 0 {
		return true
	}
	have := lowerSet(c.Skills)
	for _, want := range job.RequiredSkills {
		if have[strings.ToLower(strings.TrimSpace(want))] {
			return true
		}
	}
	return false
}

// missingSkills returns the required skills the candidate lacks, in the
// job's declared order.
func missingSkills(have, required []string) []string {
	if len(required) == 0 {
		return nil
	}
	set := lowerSet(have)
	var missing []string
	for _, want := range required {
		if !set[strings.ToLower(strings.TrimSpace(want))] {
			missing = append(missing, want)
		}
	}
	return missing
}

// batchMatches uses a bidirectional substring check so that "2025" matches
// "Batch 2025" and vice versa — batch labels are free-form across records.
func batchMatches(batch string, eligible []string) bool {
	b := strings.ToLower(strings.TrimSpace(batch))
	if b == "" {
		return false
	}
	for _, e := range eligible {
		el := strings.ToLower(strings.TrimSpace(e))
		if el == "" {
			continue
		}
		if strings.Contains(b, el) || strings.Contains(el, b) {
			return true
		}
	}
	return false
}

func genderMatches(gender, preference string) bool {
	p := strings.ToLower(strings.TrimSpace(preference))
	if p == "" || p == "any" {
		return true
	}
	return p == strings.ToLower(strings.TrimSpace(gender))
}

func lowerSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToLower(strings.TrimSpace(v))] = true
	}
	return set
}

// safeCGPA clamps malformed profile values to 0.
func safeCGPA(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

func safeArrears(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
