package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/salewatch/salewatch/internal/domain"
	"github.com/salewatch/salewatch/internal/pkg/httputil"
	"github.com/salewatch/salewatch/internal/repository/postgres"
	"github.com/salewatch/salewatch/internal/service/suggest"
	"github.com/salewatch/salewatch/internal/service/verify"
)

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.BadRequest(w, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) handleListPredictions(w http.ResponseWriter, r *http.Request) {
	var f postgres.PredictionFilter

	if v := r.URL.Query().Get("brand_id"); v != "" {
		brandID, err := uuid.Parse(v)
		if err != nil {
			httputil.BadRequest(w, "invalid brand_id")
			return
		}
		f.BrandID = &brandID
	}
	if v := r.URL.Query().Get("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			httputil.BadRequest(w, "invalid year")
			return
		}
		f.Year = &year
	}

	predictions, err := s.predictions.List(r.Context(), f)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{"predictions": predictions, "count": len(predictions)})
}

func (s *Server) handleUpcomingPredictions(w http.ResponseWriter, r *http.Request) {
	days := 14
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			httputil.BadRequest(w, "invalid days")
			return
		}
		days = parsed
	}

	predictions, err := s.predictions.ListUpcoming(r.Context(), time.Now().UTC(), days)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{"predictions": predictions, "count": len(predictions)})
}

func (s *Server) handleGetPrediction(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	p, err := s.predictions.Get(r.Context(), id)
	if errors.Is(err, verify.ErrPredictionNotFound) {
		httputil.NotFound(w, "prediction not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, p)
}

func (s *Server) handleGetOutcome(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	o, err := s.outcomes.GetOutcome(r.Context(), id)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if o == nil {
		httputil.NotFound(w, "no outcome recorded for this prediction yet")
		return
	}
	httputil.OK(w, map[string]interface{}{"outcome": o, "final_result": o.FinalResult()})
}

func (s *Server) handleOverride(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req struct {
		Result domain.Result `json:"result"`
		Reason string        `json:"reason"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}

	o, err := s.overrider.Override(r.Context(), id, req.Result, req.Reason)
	switch {
	case errors.Is(err, verify.ErrInvalidResult):
		httputil.BadRequest(w, "result must be hit or miss")
	case errors.Is(err, verify.ErrPredictionNotFound):
		httputil.NotFound(w, "prediction not found")
	case err != nil:
		httputil.InternalError(w, err)
	default:
		httputil.OK(w, o)
	}
}

func (s *Server) handleSetCalendarRef(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req struct {
		CalendarEventID string `json:"calendar_event_id"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.CalendarEventID == "" {
		httputil.BadRequest(w, "calendar_event_id is required")
		return
	}

	err := s.predictions.SetCalendarRef(r.Context(), id, req.CalendarEventID)
	if errors.Is(err, verify.ErrPredictionNotFound) {
		httputil.NotFound(w, "prediction not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"status": "updated"})
}

func (s *Server) handleOverallAccuracy(w http.ResponseWriter, r *http.Request) {
	all, err := s.stats.ListAllStats(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	var total, correct int
	for _, b := range all {
		total += b.TotalPredictions
		correct += b.CorrectPredictions
	}
	overall := map[string]interface{}{
		"brands":              len(all),
		"total_predictions":   total,
		"correct_predictions": correct,
	}
	if total > 0 {
		overall["hit_rate"] = float64(correct) / float64(total)
	}
	httputil.OK(w, overall)
}

func (s *Server) handleListBrandStats(w http.ResponseWriter, r *http.Request) {
	all, err := s.stats.ListAllStats(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{"brands": all, "count": len(all)})
}

func (s *Server) handleGetBrandStats(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	stats, err := s.stats.GetStats(r.Context(), id)
	if err != nil {
		httputil.NotFound(w, "no accuracy stats for this brand")
		return
	}
	httputil.OK(w, stats)
}

func (s *Server) handleListSuggestions(w http.ResponseWriter, r *http.Request) {
	status := domain.SuggestionStatus(r.URL.Query().Get("status"))
	switch status {
	case "", domain.SuggestionPending, domain.SuggestionApproved, domain.SuggestionDismissed:
	default:
		httputil.BadRequest(w, "invalid status")
		return
	}

	suggestions, err := s.suggestions.ListByStatus(r.Context(), status)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{"suggestions": suggestions, "count": len(suggestions)})
}

func (s *Server) resolveSuggestion(w http.ResponseWriter, r *http.Request, approve bool) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	sg, err := s.resolver.Resolve(r.Context(), id, approve)
	switch {
	case errors.Is(err, suggest.ErrSuggestionNotFound):
		httputil.NotFound(w, "suggestion not found")
	case errors.Is(err, suggest.ErrAlreadyResolved):
		httputil.Conflict(w, "suggestion already resolved")
	case err != nil:
		httputil.InternalError(w, err)
	default:
		httputil.OK(w, sg)
	}
}

func (s *Server) handleApproveSuggestion(w http.ResponseWriter, r *http.Request) {
	s.resolveSuggestion(w, r, true)
}

func (s *Server) handleDismissSuggestion(w http.ResponseWriter, r *http.Request) {
	s.resolveSuggestion(w, r, false)
}

// handlePass runs a pass synchronously and reports the per-brand summary.
func (s *Server) handlePass(runner PassRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := runner.Run(r.Context(), time.Now().UTC())
		if err != nil {
			httputil.InternalError(w, err)
			return
		}

		brandErrors := map[string]string{}
		for brandID, brandErr := range summary.Errors {
			brandErrors[brandID.String()] = brandErr.Error()
		}
		httputil.OK(w, map[string]interface{}{
			"brands":  summary.Brands,
			"skipped": summary.Skipped,
			"failed":  summary.Failed(),
			"errors":  brandErrors,
		})
	}
}
