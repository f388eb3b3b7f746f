package analytics

import (
	"TechMart/internal/domain/models"
	domsvc "TechMart/internal/domain/service"
)

const (
	priceWeight       = 0.40
	reliabilityWeight = 0.35
	deliveryWeight    = 0.25

	// DefaultPriceScore stands in for real per-supplier pricing, which the
	// catalogue does not carry yet.
	DefaultPriceScore       = 0.4
	defaultReliability      = 0.5
	defaultDeliveryDays     = 7
	maxExpectedDeliveryDays = 14
)

// SupplierScorer ranks suppliers by weighted price, reliability and delivery time.
type SupplierScorer struct {
	defaultPrice float64
}

// SupplierScorerOption configures SupplierScorer.
type SupplierScorerOption func(*SupplierScorer)

// WithDefaultPriceScore overrides the price score used for candidates without pricing.
func WithDefaultPriceScore(v float64) SupplierScorerOption {
	return func(s *SupplierScorer) { s.defaultPrice = v }
}

func NewSupplierScorer(opts ...SupplierScorerOption) *SupplierScorer {
	s := &SupplierScorer{defaultPrice: DefaultPriceScore}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score computes the weighted total for one candidate. The delivery component
// goes negative for suppliers slower than the expected maximum.
func (s *SupplierScorer) Score(c models.SupplierCandidate) float64 {
	price := s.defaultPrice
	if c.PriceScore != nil {
		price = *c.PriceScore
	}
	reliability := defaultReliability
	if c.ReliabilityScore != nil {
		reliability = *c.ReliabilityScore
	}
	days := defaultDeliveryDays
	if c.AverageDeliveryDays != nil {
		days = *c.AverageDeliveryDays
	}
	delivery := float64(maxExpectedDeliveryDays-days) / maxExpectedDeliveryDays

	return price*priceWeight + reliability*reliabilityWeight + delivery*deliveryWeight
}

// SelectOptimalSupplier returns the candidate with the strictly highest score;
// the earliest candidate wins ties. ok is false for an empty list.
func (s *SupplierScorer) SelectOptimalSupplier(candidates []models.SupplierCandidate) (models.SupplierCandidate, bool) {
	if len(candidates) == 0 {
		return models.SupplierCandidate{}, false
	}
	best := 0
	bestScore := s.Score(candidates[0])
	for i := 1; i < len(candidates); i++ {
		if sc := s.Score(candidates[i]); sc > bestScore {
			best, bestScore = i, sc
		}
	}
	return candidates[best], true
}

var _ domsvc.SupplierSelector = (*SupplierScorer)(nil)
