package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/assessment"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/domain"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/report"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/rubric"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/store"
)

// AssessmentRequest is the body of POST /api/v1/assessments.
type AssessmentRequest struct {
	SystemName string `json:"system_name"`
	Seed       *int64 `json:"seed,omitempty"`
	Domain     string `json:"domain,omitempty"`
}

// AssessmentResponse is returned for created and fetched assessments.
type AssessmentResponse struct {
	ID          string             `json:"id"`
	ContentHash string             `json:"content_hash"`
	CreatedAt   time.Time          `json:"created_at"`
	Result      *assessment.Result `json:"result"`
	Validation  *domain.Validation `json:"validation,omitempty"`
}

// BreakdownResponse explains how a stored assessment's composite was reached.
type BreakdownResponse struct {
	ID string `json:"id"`
	*report.Explanation
}

// AssessmentSummary is one entry of a system's history.
type AssessmentSummary struct {
	ID                  string    `json:"id"`
	CompositeScore      int       `json:"composite_score"`
	LevelClassification string    `json:"level_classification"`
	AuditStatus         string    `json:"audit_status"`
	ContentHash         string    `json:"content_hash"`
	CreatedAt           time.Time `json:"created_at"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version":           s.cfg.Version,
		"framework_version": rubric.FrameworkVersion,
	})
}

func (s *Server) handleDimensions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.base.Catalog().Dimensions())
}

func (s *Server) handleDomains(w http.ResponseWriter, r *http.Request) {
	profiles, err := domain.ListProfiles(s.cfg.ProfilesDir)
	if err != nil {
		WriteInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

func (s *Server) handleCreateAssessment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	var req AssessmentRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, r, http.StatusRequestEntityTooLarge, "Request Entity Too Large", "Request body exceeds 1 MiB")
			return
		}
		WriteBadRequest(w, r, "Invalid request body")
		return
	}
	req.SystemName = strings.TrimSpace(req.SystemName)
	if req.SystemName == "" {
		WriteBadRequest(w, r, "Missing required field: system_name")
		return
	}

	code := req.Domain
	if code == "" {
		code = s.cfg.DefaultDomain
	}
	profile, err := domain.Resolve(s.cfg.ProfilesDir, code)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownProfile) {
			WriteUnprocessable(w, r, "Unknown domain profile: "+code)
			return
		}
		WriteInternal(w, r, err)
		return
	}

	orch := s.base
	if req.Seed != nil {
		opts := append(slices.Clone(s.cfg.Assessment),
			assessment.WithAuditLogger(s.cfg.Audit), assessment.WithSeed(*req.Seed))
		if orch, err = assessment.New(opts...); err != nil {
			WriteInternal(w, r, err)
			return
		}
	}

	ctx := r.Context()
	start := time.Now()
	result, err := orch.Run(ctx, req.SystemName, nil)
	if err != nil {
		WriteInternal(w, r, err)
		return
	}
	elapsed := time.Since(start)

	validation, err := s.evaluator.Evaluate(ctx, profile, result.DomainInput())
	if err != nil {
		WriteInternal(w, r, err)
		return
	}
	s.cfg.Metrics.Observe(result, validation, elapsed)

	hash, err := report.ContentHash(result)
	if err != nil {
		WriteInternal(w, r, err)
		return
	}
	rec, err := store.NewRecord(result, hash)
	if err != nil {
		WriteInternal(w, r, err)
		return
	}
	if err := s.cfg.Store.Save(ctx, rec); err != nil {
		WriteInternal(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/v1/assessments/"+rec.ID)
	writeJSON(w, http.StatusCreated, AssessmentResponse{
		ID:          rec.ID,
		ContentHash: hash,
		CreatedAt:   rec.CreatedAt,
		Result:      result,
		Validation:  validation,
	})
}

func (s *Server) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, err := s.cfg.Store.Get(r.Context(), id)
	if err != nil {
		s.writeLookupError(w, r, err, "Assessment not found: "+id)
		return
	}
	s.writeRecord(w, r, rec)
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, err := s.cfg.Store.Get(r.Context(), id)
	if err != nil {
		s.writeLookupError(w, r, err, "Assessment not found: "+id)
		return
	}
	result, err := rec.Result()
	if err != nil {
		WriteInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BreakdownResponse{ID: rec.ID, Explanation: report.Explain(result)})
}

func (s *Server) handleLatestAssessment(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	rec, err := store.Latest(r.Context(), s.cfg.Store, name)
	if err != nil {
		s.writeLookupError(w, r, err, "No assessments recorded for "+name)
		return
	}
	s.writeRecord(w, r, rec)
}

func (s *Server) writeLookupError(w http.ResponseWriter, r *http.Request, err error, detail string) {
	if errors.Is(err, store.ErrNotFound) {
		WriteNotFound(w, r, detail)
		return
	}
	WriteInternal(w, r, err)
}

func (s *Server) writeRecord(w http.ResponseWriter, r *http.Request, rec *store.Record) {
	result, err := rec.Result()
	if err != nil {
		WriteInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AssessmentResponse{
		ID:          rec.ID,
		ContentHash: rec.ContentHash,
		CreatedAt:   rec.CreatedAt,
		Result:      result,
	})
}

func (s *Server) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			WriteBadRequest(w, r, "limit must be a positive integer")
			return
		}
		limit = n
	}
	recs, err := s.cfg.Store.ListBySystem(r.Context(), r.PathValue("name"), limit)
	if err != nil {
		WriteInternal(w, r, err)
		return
	}
	out := make([]AssessmentSummary, 0, len(recs))
	for _, rec := range recs {
		out = append(out, AssessmentSummary{
			ID:                  rec.ID,
			CompositeScore:      rec.CompositeScore,
			LevelClassification: rec.LevelClassification,
			AuditStatus:         rec.AuditStatus,
			ContentHash:         rec.ContentHash,
			CreatedAt:           rec.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
