package categorize

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/wealthwise/docparse/internal/domain/transaction"
)

// defaultIndustry is sent when no business profile is available.
const defaultIndustry = "OTHER"

// ProfileSource resolves the business context the classifier conditions on.
// Optional; without one every business classifies under the generic industry.
type ProfileSource interface {
	Profile(ctx context.Context, businessID uuid.UUID) (industry, businessName string, err error)
}

// Service categorizes transaction batches: remote classifier first, keyword
// cascade for whatever the remote call could not answer.
type Service struct {
	client   *Client
	profiles ProfileSource
	logger   *slog.Logger
}

// NewService creates the categorization service. client may be nil, in which
// case every batch goes straight to the cascade.
func NewService(client *Client, logger *slog.Logger) *Service {
	return &Service{client: client, logger: logger}
}

// WithProfileSource wires an optional business profile lookup.
func (s *Service) WithProfileSource(profiles ProfileSource) *Service {
	s.profiles = profiles
	return s
}

// Categorize assigns a category, sub-category, confidence and tax flag to
// every transaction in the batch. The whole batch always ends up categorized;
// a remote failure degrades to the cascade instead of propagating.
func (s *Service) Categorize(ctx context.Context, businessID uuid.UUID, txs []*transaction.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	if s.client == nil {
		s.applyCascadeAll(txs)
		return nil
	}

	industry, businessName := s.lookupProfile(ctx, businessID)

	results, err := s.client.Classify(ctx, industry, businessName, txs)
	if err != nil {
		s.logger.Warn("remote classification failed, falling back to rules",
			slog.String("business_id", businessID.String()),
			slog.Int("batch", len(txs)),
			slog.Any("error", err),
		)
		s.applyCascadeAll(txs)
		return nil
	}

	var unmatched int
	for _, tx := range txs {
		result, ok := results[tx.ID]
		if !ok {
			applyCascade(tx)
			unmatched++
			continue
		}
		tx.Category = result.Category
		tx.SubCategory = result.SubCategory
		tx.Confidence = result.Confidence
		tx.TaxDeductible = result.IsTaxDeductible
	}

	s.logger.Info("batch categorized",
		slog.String("business_id", businessID.String()),
		slog.Int("batch", len(txs)),
		slog.Int("rule_fallbacks", unmatched),
	)
	return nil
}

func (s *Service) lookupProfile(ctx context.Context, businessID uuid.UUID) (string, string) {
	if s.profiles == nil {
		return defaultIndustry, ""
	}
	industry, businessName, err := s.profiles.Profile(ctx, businessID)
	if err != nil {
		s.logger.Warn("business profile lookup failed",
			slog.String("business_id", businessID.String()),
			slog.Any("error", err),
		)
		return defaultIndustry, ""
	}
	if industry == "" {
		industry = defaultIndustry
	}
	return industry, businessName
}

func (s *Service) applyCascadeAll(txs []*transaction.Transaction) {
	for _, tx := range txs {
		applyCascade(tx)
	}
}
