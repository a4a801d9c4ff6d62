package bookkeeping

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wealthwise/docparse/internal/domain/transaction"
)

// ErrRuleNotFound indicates the rule id does not exist for the business.
var ErrRuleNotFound = errors.New("bookkeeping rule not found")

// Repository defines persistence for bookkeeping rules.
type Repository interface {
	Create(ctx context.Context, rule *Rule) error
	ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]*Rule, error)
	ListActive(ctx context.Context, businessID uuid.UUID) ([]*Rule, error)
	Delete(ctx context.Context, businessID, id uuid.UUID) error
	TouchApplied(ctx context.Context, ids []uuid.UUID) error
}

// PostgresRepository implements Repository on a pgx pool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a rule repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Create(ctx context.Context, rule *Rule) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO bookkeeping_rules (
			id, business_id, rule_name, description, keyword_pattern,
			amount_min, amount_max, transaction_type, target_category,
			target_sub_category, priority, is_active, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,now(),now())`,
		rule.ID, rule.BusinessID, rule.Name, rule.Description, rule.KeywordPattern,
		rule.AmountMin, rule.AmountMax, nullableType(rule.TransactionType), rule.TargetCategory,
		rule.TargetSubCategory, rule.Priority, rule.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bookkeeping rule: %w", err)
	}
	return nil
}

const selectRuleSQL = `
	SELECT id, business_id, rule_name, COALESCE(description, ''),
	       COALESCE(keyword_pattern, ''), amount_min, amount_max,
	       COALESCE(transaction_type, ''), target_category,
	       COALESCE(target_sub_category, ''), priority, is_active,
	       last_applied_at, created_at, updated_at
	FROM bookkeeping_rules`

func (r *PostgresRepository) ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]*Rule, error) {
	rows, err := r.pool.Query(ctx,
		selectRuleSQL+` WHERE business_id = $1 ORDER BY priority DESC, created_at`, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookkeeping rules: %w", err)
	}
	defer rows.Close()
	return scanRules(rows)
}

// ListActive returns the business's active rules, highest priority first,
// the evaluation order of the rule engine.
func (r *PostgresRepository) ListActive(ctx context.Context, businessID uuid.UUID) ([]*Rule, error) {
	rows, err := r.pool.Query(ctx,
		selectRuleSQL+` WHERE business_id = $1 AND is_active = TRUE ORDER BY priority DESC, created_at`,
		businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to query active bookkeeping rules: %w", err)
	}
	defer rows.Close()
	return scanRules(rows)
}

func (r *PostgresRepository) Delete(ctx context.Context, businessID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM bookkeeping_rules WHERE id = $1 AND business_id = $2`, id, businessID)
	if err != nil {
		return fmt.Errorf("failed to delete bookkeeping rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	return nil
}

// TouchApplied stamps last_applied_at on the rules that fired in a sweep.
func (r *PostgresRepository) TouchApplied(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE bookkeeping_rules SET last_applied_at = now(), updated_at = now() WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("failed to stamp applied rules: %w", err)
	}
	return nil
}

func scanRules(rows pgx.Rows) ([]*Rule, error) {
	var rules []*Rule
	for rows.Next() {
		var rule Rule
		var txType string
		if err := rows.Scan(
			&rule.ID, &rule.BusinessID, &rule.Name, &rule.Description,
			&rule.KeywordPattern, &rule.AmountMin, &rule.AmountMax,
			&txType, &rule.TargetCategory, &rule.TargetSubCategory,
			&rule.Priority, &rule.Active, &rule.LastAppliedAt,
			&rule.CreatedAt, &rule.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bookkeeping rule: %w", err)
		}
		rule.TransactionType = transaction.Type(txType)
		rules = append(rules, &rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookkeeping rules: %w", err)
	}
	return rules, nil
}

// nullableType maps the empty "any type" filter to NULL.
func nullableType(t transaction.Type) *string {
	if t == "" {
		return nil
	}
	s := string(t)
	return &s
}
