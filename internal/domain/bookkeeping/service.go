package bookkeeping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/wealthwise/docparse/internal/domain/transaction"
)

// ruleConfidence is the score of a rule-applied category. User rules are
// authoritative, so matches are also marked verified.
const ruleConfidence = 1.0

var (
	// ErrRuleNameRequired indicates a rule without a name.
	ErrRuleNameRequired = errors.New("rule name is required")
	// ErrRuleCategoryRequired indicates a rule without a target category.
	ErrRuleCategoryRequired = errors.New("rule target category is required")
	// ErrRuleAmountRange indicates min above max.
	ErrRuleAmountRange = errors.New("rule amount minimum exceeds maximum")
)

// Service owns bookkeeping rules, the rule engine and duplicate detection.
type Service struct {
	rules  Repository
	txs    transaction.Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates the bookkeeping service.
func NewService(rules Repository, txs transaction.Repository, logger *slog.Logger) *Service {
	return &Service{
		rules:  rules,
		txs:    txs,
		logger: logger,
		now:    time.Now,
	}
}

// CreateRule validates and persists a rule. Missing id and active flag get
// defaults. Rules without keywords are allowed; they match on their amount
// and type filters alone.
func (s *Service) CreateRule(ctx context.Context, rule *Rule) error {
	if rule.Name == "" {
		return ErrRuleNameRequired
	}
	if rule.TargetCategory == "" {
		return ErrRuleCategoryRequired
	}
	if rule.AmountMin != nil && rule.AmountMax != nil && rule.AmountMin.GreaterThan(*rule.AmountMax) {
		return ErrRuleAmountRange
	}
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	rule.Active = true

	if err := s.rules.Create(ctx, rule); err != nil {
		return err
	}
	s.logger.Info("bookkeeping rule created",
		slog.String("rule_id", rule.ID.String()),
		slog.String("business_id", rule.BusinessID.String()),
		slog.String("name", rule.Name),
	)
	return nil
}

// ListRules returns a business's rules, highest priority first.
func (s *Service) ListRules(ctx context.Context, businessID uuid.UUID) ([]*Rule, error) {
	return s.rules.ListByBusiness(ctx, businessID)
}

// DeleteRule removes a business-owned rule.
func (s *Service) DeleteRule(ctx context.Context, businessID, id uuid.UUID) error {
	return s.rules.Delete(ctx, businessID, id)
}

// ApplyRules runs the business's active rules over its unverified
// transactions. Matches get the rule's category with full confidence and are
// marked verified. Returns how many transactions changed.
func (s *Service) ApplyRules(ctx context.Context, businessID uuid.UUID) (int, error) {
	rules, err := s.rules.ListActive(ctx, businessID)
	if err != nil {
		return 0, err
	}
	if len(rules) == 0 {
		return 0, nil
	}

	txs, err := s.txs.ListUnverified(ctx, businessID)
	if err != nil {
		return 0, err
	}
	if len(txs) == 0 {
		return 0, nil
	}

	engine := newRuleEngine(rules)

	var changed []*transaction.Transaction
	applied := make(map[uuid.UUID]struct{})
	for _, tx := range txs {
		rule := engine.bestMatch(tx)
		if rule == nil {
			continue
		}
		tx.Category = rule.TargetCategory
		tx.SubCategory = rule.TargetSubCategory
		tx.Confidence = ruleConfidence
		tx.Verified = true
		changed = append(changed, tx)
		applied[rule.ID] = struct{}{}
	}
	if len(changed) == 0 {
		return 0, nil
	}

	if err := s.txs.UpdateReview(ctx, changed); err != nil {
		return 0, fmt.Errorf("failed to persist rule matches: %w", err)
	}

	appliedIDs := make([]uuid.UUID, 0, len(applied))
	for id := range applied {
		appliedIDs = append(appliedIDs, id)
	}
	if err := s.rules.TouchApplied(ctx, appliedIDs); err != nil {
		s.logger.Warn("failed to stamp applied rules", slog.Any("error", err))
	}

	s.logger.Info("bookkeeping rules applied",
		slog.String("business_id", businessID.String()),
		slog.Int("matched", len(changed)),
		slog.Int("rules_fired", len(appliedIDs)),
	)
	return len(changed), nil
}

// DetectDuplicates flags possible duplicates among the business's recent
// transactions and assigns shared group ids. Returns how many transactions
// were newly flagged.
func (s *Service) DetectDuplicates(ctx context.Context, businessID uuid.UUID) (int, error) {
	since := s.now().AddDate(0, 0, -duplicateWindowDays)
	txs, err := s.txs.ListRecent(ctx, businessID, since)
	if err != nil {
		return 0, err
	}
	if len(txs) < 2 {
		return 0, nil
	}

	changed := findDuplicateGroups(txs)
	if len(changed) == 0 {
		return 0, nil
	}

	if err := s.txs.UpdateReview(ctx, changed); err != nil {
		return 0, fmt.Errorf("failed to persist duplicate flags: %w", err)
	}

	s.logger.Info("possible duplicates flagged",
		slog.String("business_id", businessID.String()),
		slog.Int("flagged", len(changed)),
	)
	return len(changed), nil
}

// Sweep runs rule application and duplicate detection for every business
// with recent activity. Invoked by the nightly scheduler.
func (s *Service) Sweep(ctx context.Context) error {
	since := s.now().AddDate(0, 0, -duplicateWindowDays)
	businesses, err := s.txs.ListActiveBusinesses(ctx, since)
	if err != nil {
		return err
	}

	for _, businessID := range businesses {
		if _, err := s.ApplyRules(ctx, businessID); err != nil {
			s.logger.Error("rule sweep failed",
				slog.String("business_id", businessID.String()),
				slog.Any("error", err),
			)
		}
		if _, err := s.DetectDuplicates(ctx, businessID); err != nil {
			s.logger.Error("duplicate sweep failed",
				slog.String("business_id", businessID.String()),
				slog.Any("error", err),
			)
		}
	}
	return nil
}
