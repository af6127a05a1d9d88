// Package api exposes the engine's read paths, the manual-override and
// suggestion-resolution entry points, and operator pass triggers as a
// thin HTTP layer over the services.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/salewatch/salewatch/internal/domain"
	"github.com/salewatch/salewatch/internal/repository/postgres"
	"github.com/salewatch/salewatch/internal/worker"
)

// PredictionStore serves prediction reads and the calendar write-back.
type PredictionStore interface {
	List(ctx context.Context, f postgres.PredictionFilter) ([]domain.Prediction, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Prediction, error)
	ListUpcoming(ctx context.Context, asOf time.Time, days int) ([]domain.Prediction, error)
	SetCalendarRef(ctx context.Context, id uuid.UUID, calendarEventID string) error
}

// OutcomeStore reads prediction outcomes.
type OutcomeStore interface {
	GetOutcome(ctx context.Context, predictionID uuid.UUID) (*domain.PredictionOutcome, error)
}

// Overrider is the manual-correction entry point into outcomes.
type Overrider interface {
	Override(ctx context.Context, predictionID uuid.UUID, result domain.Result, reason string) (*domain.PredictionOutcome, error)
}

// StatsStore reads brand accuracy stats.
type StatsStore interface {
	GetStats(ctx context.Context, brandID uuid.UUID) (*domain.BrandAccuracyStats, error)
	ListAllStats(ctx context.Context) ([]domain.BrandAccuracyStats, error)
}

// SuggestionStore lists suggestions.
type SuggestionStore interface {
	ListByStatus(ctx context.Context, status domain.SuggestionStatus) ([]domain.AdjustmentSuggestion, error)
}

// SuggestionResolver approves or dismisses pending suggestions.
type SuggestionResolver interface {
	Resolve(ctx context.Context, id uuid.UUID, approve bool) (*domain.AdjustmentSuggestion, error)
}

// PassRunner triggers one scheduled pass on demand.
type PassRunner interface {
	Run(ctx context.Context, asOf time.Time) (worker.PassSummary, error)
}

// Server holds the handler dependencies.
type Server struct {
	predictions PredictionStore
	outcomes    OutcomeStore
	overrider   Overrider
	stats       StatsStore
	suggestions SuggestionStore
	resolver    SuggestionResolver
	weeklyPass  PassRunner
	dailyPass   PassRunner
}

// NewServer wires the API server.
func NewServer(predictions PredictionStore, outcomes OutcomeStore, overrider Overrider,
	stats StatsStore, suggestions SuggestionStore, resolver SuggestionResolver,
	weeklyPass, dailyPass PassRunner) *Server {
	return &Server{
		predictions: predictions,
		outcomes:    outcomes,
		overrider:   overrider,
		stats:       stats,
		suggestions: suggestions,
		resolver:    resolver,
		weeklyPass:  weeklyPass,
		dailyPass:   dailyPass,
	}
}

// Routes builds the router.
func (s *Server) Routes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/predictions", func(r chi.Router) {
			r.Get("/", s.handleListPredictions)
			r.Get("/upcoming", s.handleUpcomingPredictions)
			r.Get("/{id}", s.handleGetPrediction)
			r.Get("/{id}/outcome", s.handleGetOutcome)
			r.Post("/{id}/override", s.handleOverride)
			r.Put("/{id}/calendar-ref", s.handleSetCalendarRef)
		})

		r.Route("/accuracy", func(r chi.Router) {
			r.Get("/", s.handleOverallAccuracy)
			r.Get("/brands", s.handleListBrandStats)
			r.Get("/brands/{id}", s.handleGetBrandStats)
		})

		r.Route("/suggestions", func(r chi.Router) {
			r.Get("/", s.handleListSuggestions)
			r.Post("/{id}/approve", s.handleApproveSuggestion)
			r.Post("/{id}/dismiss", s.handleDismissSuggestion)
		})

		r.Route("/passes", func(r chi.Router) {
			r.Post("/weekly", s.handlePass(s.weeklyPass))
			r.Post("/daily", s.handlePass(s.dailyPass))
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
