package dedup

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/salewatch/salewatch/internal/domain"
	"github.com/salewatch/salewatch/internal/holiday"
)

// Grouping thresholds. Date proximity extends each range before testing
// overlap; discount tolerance is in percentage points.
const (
	DefaultDateProximityDays      = 3
	DefaultDiscountValueTolerance = 5.0
	DefaultAnchorToleranceDays    = 3
)

// Options tunes the grouping thresholds. Zero values fall back to defaults.
type Options struct {
	DateProximityDays      int
	DiscountValueTolerance float64
	AnchorToleranceDays    int
}

func (o Options) withDefaults() Options {
	if o.DateProximityDays <= 0 {
		o.DateProximityDays = DefaultDateProximityDays
	}
	if o.DiscountValueTolerance <= 0 {
		o.DiscountValueTolerance = DefaultDiscountValueTolerance
	}
	if o.AnchorToleranceDays <= 0 {
		o.AnchorToleranceDays = DefaultAnchorToleranceDays
	}
	return o
}

// Service implements sale window deduplication for one brand at a time.
type Service struct {
	repo Repository
	opts Options
}

// NewService creates a dedup service backed by the given repository.
func NewService(repo Repository, opts Options) *Service {
	return &Service{repo: repo, opts: opts.withDefaults()}
}

// group is the in-progress accumulation of one sale window.
type group struct {
	start          time.Time
	end            time.Time
	discount       domain.Discount
	bestConfidence float64
	observations   []domain.SaleObservation
	categories     map[string]struct{}
}

// discountsMatch reports whether two discounts are similar enough to group:
// types must be equal, and when both carry values they must be within
// tolerance. A one-sided value still matches on type alone.
func discountsMatch(a, b domain.Discount, tolerance float64) bool {
	if a.Type != b.Type {
		return false
	}
	if a.Value != nil && b.Value != nil {
		diff := *a.Value - *b.Value
		if diff < 0 {
			diff = -diff
		}
		return diff <= tolerance
	}
	return true
}

// Group folds a brand's observations into sale windows. Observations
// without a start date are excluded. The pass is greedy: ties always go to
// the earliest-created compatible window, which makes regrouping the same
// input deterministic.
func (s *Service) Group(brand *domain.Brand, observations []domain.SaleObservation) []domain.SaleWindow {
	type dated struct {
		obs        domain.SaleObservation
		start, end time.Time
	}
	eligible := make([]dated, 0, len(observations))
	for _, obs := range observations {
		start, end, ok := obs.DateRange()
		if !ok {
			continue
		}
		eligible = append(eligible, dated{obs: obs, start: start, end: end})
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].start.Before(eligible[j].start)
	})

	var groups []*group
	for _, e := range eligible {
		var matched *group
		for _, g := range groups {
			if !domain.RangesOverlap(e.start, e.end, g.start, g.end, s.opts.DateProximityDays) {
				continue
			}
			if !discountsMatch(e.obs.Discount, g.discount, s.opts.DiscountValueTolerance) {
				continue
			}
			matched = g
			break
		}

		if matched == nil {
			g := &group{
				start:          e.start,
				end:            e.end,
				discount:       e.obs.Discount,
				bestConfidence: e.obs.Confidence,
				observations:   []domain.SaleObservation{e.obs},
				categories:     map[string]struct{}{},
			}
			for _, c := range e.obs.Categories {
				g.categories[c] = struct{}{}
			}
			groups = append(groups, g)
			continue
		}

		if e.start.Before(matched.start) {
			matched.start = e.start
		}
		if e.end.After(matched.end) {
			matched.end = e.end
		}
		matched.observations = append(matched.observations, e.obs)
		for _, c := range e.obs.Categories {
			matched.categories[c] = struct{}{}
		}
		// Keep the discount reported by the most confident observation.
		if e.obs.Discount.Value != nil && (matched.discount.Value == nil || e.obs.Confidence > matched.bestConfidence) {
			matched.discount = e.obs.Discount
			matched.bestConfidence = e.obs.Confidence
		}
	}

	windows := make([]domain.SaleWindow, 0, len(groups))
	for _, g := range groups {
		windows = append(windows, s.buildWindow(brand, g))
	}
	return windows
}

func (s *Service) buildWindow(brand *domain.Brand, g *group) domain.SaleWindow {
	obsIDs := make([]uuid.UUID, 0, len(g.observations))
	sitewideVotes := 0
	for _, obs := range g.observations {
		obsIDs = append(obsIDs, obs.ID)
		if obs.Sitewide {
			sitewideVotes++
		}
	}
	sitewide := sitewideVotes*2 > len(g.observations)

	categories := make([]string, 0, len(g.categories))
	for c := range g.categories {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	w := domain.SaleWindow{
		ID:              uuid.New(),
		BrandID:         brand.ID,
		Name:            saleName(brand.Name, g.discount, g.start),
		DiscountSummary: discountSummary(g.discount, sitewide),
		Discount:        g.discount,
		Start:           g.start,
		End:             g.end,
		ObservationIDs:  obsIDs,
		Categories:      categories,
		Sitewide:        sitewide,
		Year:            g.start.Year(),
	}
	if occ := holiday.Nearest(g.start, s.opts.AnchorToleranceDays); occ != nil {
		w.HolidayAnchor = string(occ.Holiday)
	}
	return w
}

// saleName builds a descriptive window name, e.g. "Acme May 20% Off".
func saleName(brandName string, d domain.Discount, start time.Time) string {
	var discountStr string
	switch {
	case d.Type == domain.DiscountPercentOff && d.Value != nil:
		discountStr = fmt.Sprintf("%d%% Off", int(*d.Value))
	case d.Type == domain.DiscountUpTo && d.MaxValue != nil:
		discountStr = fmt.Sprintf("Up to %d%% Off", int(*d.MaxValue))
	case d.Type == domain.DiscountBOGO:
		discountStr = "BOGO"
	case d.Type == domain.DiscountFreeShipping:
		discountStr = "Free Shipping"
	case d.Type == domain.DiscountFixedPrice && d.Value != nil:
		discountStr = fmt.Sprintf("$%d Sale", int(*d.Value))
	default:
		discountStr = "Sale"
	}
	return fmt.Sprintf("%s %s %s", brandName, start.Month().String(), discountStr)
}

// discountSummary builds the human-readable discount line carried onto
// predictions, e.g. "20% off sitewide".
func discountSummary(d domain.Discount, sitewide bool) string {
	var base string
	switch {
	case d.Type == domain.DiscountPercentOff && d.Value != nil:
		base = fmt.Sprintf("%d%% off", int(*d.Value))
	case d.Type == domain.DiscountUpTo && d.MaxValue != nil:
		base = fmt.Sprintf("Up to %d%% off", int(*d.MaxValue))
	case d.Type == domain.DiscountBOGO:
		base = "Buy one get one"
	case d.Type == domain.DiscountFreeShipping:
		base = "Free shipping"
	case d.Type == domain.DiscountFixedPrice && d.Value != nil:
		base = fmt.Sprintf("Starting at $%d", int(*d.Value))
	default:
		base = "Special promotion"
	}
	if sitewide {
		base += " sitewide"
	}
	return base
}

// DedupBrand runs deduplication for one brand: loads ungrouped
// observations, groups them, and commits the resulting windows atomically.
// Returns the created windows.
func (s *Service) DedupBrand(ctx context.Context, brandID uuid.UUID) ([]domain.SaleWindow, error) {
	brand, err := s.repo.GetBrand(ctx, brandID)
	if err != nil {
		return nil, err
	}

	observations, err := s.repo.ListUngroupedObservations(ctx, brandID)
	if err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}
	if len(observations) == 0 {
		return nil, nil
	}

	windows := s.Group(brand, observations)
	for i := range windows {
		if err := windows[i].Validate(); err != nil {
			return nil, fmt.Errorf("grouping produced invalid window: %w", err)
		}
	}

	if err := s.repo.CreateWindows(ctx, brandID, windows); err != nil {
		return nil, fmt.Errorf("create windows: %w", err)
	}
	return windows, nil
}
