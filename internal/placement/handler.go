// HTTP handlers for the placement service.
//
// All routes expect an x-user-id header forwarded by the Gateway.
//
// Routes:
//
//	GET  /jobs/{id}/applicants   → applicant list with round statuses
//	GET  /jobs/{id}/counts       → per-round applicant counts
//	GET  /jobs/{id}/eligibility  → ?student=<id>, applicant-facing verdict
//	POST /jobs/{id}/decision     → apply a round decision batch
//	POST /jobs/{id}/notify       → announce the posting to the skill audience
package placement

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"campushire/placement-service/internal/engine"
)

// Handler adapts Service to net/http.
type Handler struct {
	svc *Service
}

// NewHandler returns a configured Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts all placement-service routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/jobs/", h.handleJobAction)
}

// handleJobAction dispatches /jobs/{id}/{action}.
func (h *Handler) handleJobAction(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("x-user-id") == "" {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 {
		jsonError(w, "invalid path", http.StatusNotFound)
		return
	}
	jobID := parts[1]
	action := parts[2]

	switch {
	case action == "applicants" && r.Method == http.MethodGet:
		h.listApplicants(w, r, jobID)
	case action == "counts" && r.Method == http.MethodGet:
		h.counts(w, r, jobID)
	case action == "eligibility" && r.Method == http.MethodGet:
		h.eligibility(w, r, jobID)
	case action == "decision" && r.Method == http.MethodPost:
		h.applyDecision(w, r, jobID)
	case action == "notify" && r.Method == http.MethodPost:
		h.notifyAudience(w, r, jobID)
	default:
		jsonError(w, fmt.Sprintf("unknown action %q", action), http.StatusNotFound)
	}
}

// ─── Individual handlers ──────────────────────────────────────────────────────

func (h *Handler) listApplicants(w http.ResponseWriter, r *http.Request, jobID string) {
	apps, err := h.svc.ListApplicants(r.Context(), jobID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonOK(w, apps)
}

func (h *Handler) counts(w http.ResponseWriter, r *http.Request, jobID string) {
	counts, err := h.svc.Counts(r.Context(), jobID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonOK(w, counts)
}

func (h *Handler) eligibility(w http.ResponseWriter, r *http.Request, jobID string) {
	studentID := r.URL.Query().Get("student")
	if studentID == "" {
		jsonError(w, "student query parameter is required", http.StatusBadRequest)
		return
	}
	result, err := h.svc.Eligibility(r.Context(), jobID, studentID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonOK(w, result)
}

func (h *Handler) applyDecision(w http.ResponseWriter, r *http.Request, jobID string) {
	var body struct {
		Action     string   `json:"action"`
		RoundIndex int      `json:"roundIndex"`
		Selected   []string `json:"selected"`
		View       []string `json:"view"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	action, err := engine.ParseAction(body.Action)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	out, err := h.svc.ApplyRoundDecision(r.Context(), jobID, engine.Decision{
		RoundIndex: body.RoundIndex,
		Action:     action,
		Selected:   body.Selected,
		View:       body.View,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonOK(w, out)
}

func (h *Handler) notifyAudience(w http.ResponseWriter, r *http.Request, jobID string) {
	notified, err := h.svc.NotifyAudience(r.Context(), jobID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonOK(w, map[string]int{"notified": notified})
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	default:
		var ve *ValidationError
		if errors.As(err, &ve) {
			jsonError(w, ve.Msg, http.StatusBadRequest)
			return
		}
		log.Printf("[placement-service] internal error: %v", err)
		jsonError(w, "internal server error", http.StatusInternalServerError)
	}
}

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
