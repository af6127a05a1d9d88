package predict

import "github.com/salewatch/salewatch/internal/domain"

// Scorer assigns a confidence in [0,1] to a prediction drawn from a source
// window. The scoring weights are a tuning concern, so the engine treats
// the scorer as pluggable rather than baking in one formula.
type Scorer interface {
	Score(source domain.SaleWindow, history []domain.SaleWindow) float64
}

// EvidenceScorer is the default scorer. It starts from a base confidence
// and adds bonuses for a holiday anchor, corroborating observations inside
// the window, and similar sales in earlier years.
type EvidenceScorer struct{}

func (EvidenceScorer) Score(source domain.SaleWindow, history []domain.SaleWindow) float64 {
	score := 0.5

	if source.HolidayAnchor != "" {
		score += 0.15
	}

	// Each corroborating observation beyond the first adds a little, up to
	// +0.15 total.
	extra := float64(len(source.ObservationIDs)-1) * 0.05
	if extra > 0.15 {
		extra = 0.15
	}
	if extra > 0 {
		score += extra
	}

	// Similar sales in prior years: same month with start day within 14,
	// or the same holiday anchor. Each distinct year adds 0.1, up to +0.25.
	years := map[int]struct{}{}
	for _, w := range history {
		if w.ID == source.ID || w.Year == source.Year {
			continue
		}
		sameTiming := w.Start.Month() == source.Start.Month() && absInt(w.Start.Day()-source.Start.Day()) <= 14
		sameAnchor := source.HolidayAnchor != "" && w.HolidayAnchor == source.HolidayAnchor
		if sameTiming || sameAnchor {
			years[w.Year] = struct{}{}
		}
	}
	bonus := float64(len(years)) * 0.1
	if bonus > 0.25 {
		bonus = 0.25
	}
	score += bonus

	if score > 1 {
		score = 1
	}
	return score
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
