// Package placement contains the I/O layer around the progression engine.
// It loads job/candidate snapshots from PostgreSQL, commits a decision's
// writes as one transaction, and publishes Redis events after commit.
// It is transport-agnostic: used by the HTTP handler and the stats refresher.
package placement

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"campushire/placement-service/internal/engine"
)

const (
	// Redis channel for per-candidate status change events, consumed by the
	// notification gateway. Best-effort: a failed publish is logged, never
	// rolled back against the committed write.
	statusEventChannel = "EVENT_ROUND_STATUS"

	// Redis channel announcing a posting to a pre-filtered audience.
	audienceEventChannel = "EVENT_JOB_AUDIENCE"

	countsTTL = 24 * time.Hour
)

// Service encapsulates all placement-drive business logic.
type Service struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
}

// NewService returns a configured Service.
func NewService(pool *pgxpool.Pool, rdb *redis.Client) *Service {
	return &Service{pool: pool, rdb: rdb}
}

// Applicant is one student with their round progress for a job.
type Applicant struct {
	StudentID   string                   `json:"studentId"`
	CGPA        float64                  `json:"cgpa"`
	Batch       string                   `json:"batch"`
	RoundStatus map[string]engine.Status `json:"roundStatus"`
}

// EligibilityResult is the applicant-facing verdict for one job.
type EligibilityResult struct {
	Eligible bool     `json:"eligible"`
	Reasons  []string `json:"reasons"`
}

// ─── Snapshot loading ─────────────────────────────────────────────────────────

// Job loads the posting definition. Returns ErrNotFound for unknown IDs.
func (s *Service) Job(ctx context.Context, jobID string) (*engine.JobPosting, error) {
	var (
		job        engine.JobPosting
		roundNames []string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT min_cgpa, required_skills, eligible_batches, gender_preference,
		        max_current_arrears, max_history_arrears, rounds, current_round_index
		 FROM jobs WHERE id = $1`,
		jobID,
	).Scan(
		&job.MinCGPA, &job.RequiredSkills, &job.EligibleBatches, &job.GenderPreference,
		&job.MaxCurrentArrears, &job.MaxHistoryArrears, &roundNames, &job.CurrentRoundIndex,
	)
	if err != nil {
		return nil, ErrNotFound
	}
	job.Rounds = make([]engine.Round, 0, len(roundNames))
	for _, name := range roundNames {
		job.Rounds = append(job.Rounds, engine.Round{Name: name})
	}
	return &job, nil
}

// Candidates loads every applicant of a job with their round-status map.
// The application record's round_status column is the map the engine reads;
// the per-student mirror exists only for the student dashboard and is kept
// in sync on commit.
func (s *Service) Candidates(ctx context.Context, jobID string) ([]engine.Candidate, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT st.id, st.cgpa, st.skills, st.batch, st.gender,
		        st.current_arrears, st.history_arrears,
		        COALESCE(a.round_status, '{}'::jsonb)
		 FROM applications a
		 JOIN students st ON st.id = a.student_id
		 WHERE a.job_id = $1
		 ORDER BY st.id`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("candidates query: %w", err)
	}
	defer rows.Close()

	var out []engine.Candidate
	for rows.Next() {
		var (
			c   engine.Candidate
			raw []byte
		)
		if err := rows.Scan(
			&c.ID, &c.CGPA, &c.Skills, &c.Batch, &c.Gender,
			&c.CurrentArrears, &c.HistoryArrears, &raw,
		); err != nil {
			return nil, fmt.Errorf("candidates scan: %w", err)
		}
		c.RoundStatus = decodeRoundStatus(raw)
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListApplicants is the dashboard view of Candidates: profile fields the
// operator filters on plus the live round-status map.
func (s *Service) ListApplicants(ctx context.Context, jobID string) ([]Applicant, error) {
	candidates, err := s.Candidates(ctx, jobID)
	if err != nil {
		return nil, err
	}
	apps := make([]Applicant, 0, len(candidates))
	for _, c := range candidates {
		apps = append(apps, Applicant{
			StudentID:   c.ID,
			CGPA:        c.CGPA,
			Batch:       c.Batch,
			RoundStatus: c.RoundStatus,
		})
	}
	return apps, nil
}

// ─── Round decisions ──────────────────────────────────────────────────────────

// ApplyRoundDecision runs the engine against a fresh snapshot and commits the
// result atomically: every status write lands in both mirrors and the
// job-pointer update applies, or nothing does.
//
// The pointer update carries an optimistic guard on the round index read into
// the snapshot; if another operator advanced the job concurrently the whole
// transaction rolls back and the caller should re-fetch and retry.
func (s *Service) ApplyRoundDecision(ctx context.Context, jobID string, d engine.Decision) (*engine.Outcome, error) {
	job, err := s.Job(ctx, jobID)
	if err != nil {
		return nil, err
	}
	candidates, err := s.Candidates(ctx, jobID)
	if err != nil {
		return nil, err
	}

	out, err := engine.ApplyDecision(*job, candidates, d)
	if err != nil {
		return nil, &ValidationError{Msg: err.Error()}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, w := range out.Writes {
		// Application record: the engine-facing map.
		if _, err := tx.Exec(ctx,
			`UPDATE applications
			 SET round_status = jsonb_set(COALESCE(round_status, '{}'::jsonb), ARRAY[$1], to_jsonb($2::text), true),
			     updated_at   = NOW()
			 WHERE job_id = $3 AND student_id = $4`,
			w.RoundKey, string(w.NewStatus), jobID, w.CandidateID,
		); err != nil {
			return nil, fmt.Errorf("update application %s: %w", w.CandidateID, err)
		}

		// Student record mirror, keyed job → round → status.
		if _, err := tx.Exec(ctx,
			`UPDATE students
			 SET round_progress = jsonb_set(
			       jsonb_set(COALESCE(round_progress, '{}'::jsonb), ARRAY[$1], COALESCE(round_progress->$1, '{}'::jsonb), true),
			       ARRAY[$1, $2], to_jsonb($3::text), true)
			 WHERE id = $4`,
			jobID, w.RoundKey, string(w.NewStatus), w.CandidateID,
		); err != nil {
			return nil, fmt.Errorf("update student mirror %s: %w", w.CandidateID, err)
		}
	}

	if out.AdvanceRound {
		tag, err := tx.Exec(ctx,
			`UPDATE jobs
			 SET current_round_index = $1, updated_at = NOW()
			 WHERE id = $2 AND current_round_index = $3`,
			out.NextRoundIndex, jobID, job.CurrentRoundIndex,
		)
		if err != nil {
			return nil, fmt.Errorf("advance round: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil, &ValidationError{Msg: "job round advanced concurrently, re-fetch and retry"}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	// Post-commit: notifications and cache refresh, both non-fatal.
	for _, w := range out.Writes {
		event, _ := json.Marshal(map[string]string{
			"type":      statusEventChannel,
			"jobId":     jobID,
			"studentId": w.CandidateID,
			"round":     w.RoundKey,
			"status":    string(w.NewStatus),
		})
		if err := s.rdb.Publish(ctx, statusEventChannel, event).Err(); err != nil {
			slog.Warn("publish round status event failed", "jobId", jobID, "studentId", w.CandidateID, "err", err)
		}
	}
	s.cacheCounts(ctx, jobID, out.Counts)

	return out, nil
}

// ─── Eligibility ──────────────────────────────────────────────────────────────

// Eligibility evaluates one student against a job and returns the
// applicant-facing reasons. Both IDs must exist.
func (s *Service) Eligibility(ctx context.Context, jobID, studentID string) (*EligibilityResult, error) {
	job, err := s.Job(ctx, jobID)
	if err != nil {
		return nil, err
	}
	c, err := s.student(ctx, studentID)
	if err != nil {
		return nil, err
	}
	reasons := engine.EligibilityReasons(*c, *job)
	if reasons == nil {
		reasons = []string{}
	}
	return &EligibilityResult{Eligible: len(reasons) == 0, Reasons: reasons}, nil
}

// NotifyAudience publishes an announcement event for every student holding at
// least one of the job's required skills. This is the deliberately broad
// any-skill filter for posting announcements, not the strict applicant check.
// Returns the number of students notified.
func (s *Service) NotifyAudience(ctx context.Context, jobID string) (int, error) {
	job, err := s.Job(ctx, jobID)
	if err != nil {
		return 0, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, cgpa, skills, batch, gender, current_arrears, history_arrears FROM students`)
	if err != nil {
		return 0, fmt.Errorf("students query: %w", err)
	}
	defer rows.Close()

	notified := 0
	for rows.Next() {
		var c engine.Candidate
		if err := rows.Scan(&c.ID, &c.CGPA, &c.Skills, &c.Batch, &c.Gender, &c.CurrentArrears, &c.HistoryArrears); err != nil {
			return notified, fmt.Errorf("students scan: %w", err)
		}
		if !engine.HasAnySkill(c, *job) {
			continue
		}
		event, _ := json.Marshal(map[string]string{
			"type":      audienceEventChannel,
			"jobId":     jobID,
			"studentId": c.ID,
		})
		if err := s.rdb.Publish(ctx, audienceEventChannel, event).Err(); err != nil {
			slog.Warn("publish audience event failed", "jobId", jobID, "studentId", c.ID, "err", err)
			continue
		}
		notified++
	}
	return notified, rows.Err()
}

// ─── Counts ───────────────────────────────────────────────────────────────────

// Counts returns the applicant counts for a job, served from the Redis cache
// when fresh and recomputed from the store otherwise. The cache is only ever
// a copy: the candidate list is the source of truth.
func (s *Service) Counts(ctx context.Context, jobID string) (*engine.ApplicantCounts, error) {
	if raw, err := s.rdb.Get(ctx, countsKey(jobID)).Bytes(); err == nil {
		var cached engine.ApplicantCounts
		if json.Unmarshal(raw, &cached) == nil {
			return &cached, nil
		}
	}
	return s.RefreshCounts(ctx, jobID)
}

// RefreshCounts recomputes a job's counts from the candidate list and
// replaces the cached copy.
func (s *Service) RefreshCounts(ctx context.Context, jobID string) (*engine.ApplicantCounts, error) {
	job, err := s.Job(ctx, jobID)
	if err != nil {
		return nil, err
	}
	candidates, err := s.Candidates(ctx, jobID)
	if err != nil {
		return nil, err
	}
	counts := engine.CountApplicants(*job, candidates)
	s.cacheCounts(ctx, jobID, counts)
	return &counts, nil
}

// OpenJobIDs lists jobs whose drive is still running, for the periodic
// counts refresh.
func (s *Service) OpenJobIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM jobs WHERE is_open = true`)
	if err != nil {
		return nil, fmt.Errorf("open jobs query: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("open jobs scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Service) cacheCounts(ctx context.Context, jobID string, counts engine.ApplicantCounts) {
	raw, _ := json.Marshal(counts)
	if err := s.rdb.Set(ctx, countsKey(jobID), raw, countsTTL).Err(); err != nil {
		slog.Warn("cache counts failed", "jobId", jobID, "err", err)
	}
}

func countsKey(jobID string) string { return "job:" + jobID + ":counts" }

// ─── Internal helpers ─────────────────────────────────────────────────────────

func (s *Service) student(ctx context.Context, studentID string) (*engine.Candidate, error) {
	var c engine.Candidate
	err := s.pool.QueryRow(ctx,
		`SELECT id, cgpa, skills, batch, gender, current_arrears, history_arrears
		 FROM students WHERE id = $1`,
		studentID,
	).Scan(&c.ID, &c.CGPA, &c.Skills, &c.Batch, &c.Gender, &c.CurrentArrears, &c.HistoryArrears)
	if err != nil {
		return nil, ErrNotFound
	}
	return &c, nil
}

// decodeRoundStatus tolerates malformed rows: a bad jsonb value degrades to
// an empty map rather than failing the whole snapshot.
func decodeRoundStatus(raw []byte) map[string]engine.Status {
	var asStrings map[string]string
	if err := json.Unmarshal(raw, &asStrings); err != nil {
		return map[string]engine.Status{}
	}
	m := make(map[string]engine.Status, len(asStrings))
	for k, v := range asStrings {
		st, err := engine.ParseStatus(v)
		if err != nil {
			continue
		}
		m[k] = st
	}
	return m
}

// ─── Sentinel errors ─────────────────────────────────────────────────────────

// ErrNotFound is returned when a job or student does not exist.
var ErrNotFound = fmt.Errorf("not found")

// ValidationError wraps a user-facing validation message.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }
