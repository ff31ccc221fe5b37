package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minhdn/cuestore/internal/domain"
)

// PromotionStore implements domain.PromotionStore.
type PromotionStore struct {
	pool *pgxpool.Pool
}

var _ domain.PromotionStore = (*PromotionStore)(nil)

func NewPromotionStore(pool *pgxpool.Pool) *PromotionStore {
	return &PromotionStore{pool: pool}
}

func (s *PromotionStore) GetPromotionByCode(ctx context.Context, code string) (*domain.Promotion, error) {
	const q = `
		SELECT id, code, name, description, type, discount_value,
		       min_order_amount, max_discount_amount, usage_limit, used_count,
		       applicable_to, start_date, end_date, is_active, created_at, updated_at
		FROM promotions
		WHERE UPPER(code) = UPPER($1)`

	var p domain.Promotion
	err := s.pool.QueryRow(ctx, q, code).Scan(
		&p.ID, &p.Code, &p.Name, &p.Description, &p.Type, &p.DiscountValue,
		&p.MinOrderAmount, &p.MaxDiscountAmount, &p.UsageLimit, &p.UsedCount,
		&p.ApplicableTo, &p.StartDate, &p.EndDate, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "promotionstore.get", "promotion", code)
	}
	return &p, nil
}

// IncrementUsage bumps used_count only while the limit is not exhausted, so
// two concurrent redemptions cannot both take the last slot.
func (s *PromotionStore) IncrementUsage(ctx context.Context, promotionID uuid.UUID) (bool, error) {
	const q = `
		UPDATE promotions
		SET used_count = used_count + 1, updated_at = NOW()
		WHERE id = $1 AND (usage_limit = 0 OR used_count < usage_limit)`

	tag, err := s.pool.Exec(ctx, q, promotionID)
	if err != nil {
		return false, domain.Internal(err, "promotionstore.increment", "update failed")
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PromotionStore) DecrementUsage(ctx context.Context, promotionID uuid.UUID) error {
	const q = `
		UPDATE promotions
		SET used_count = GREATEST(used_count - 1, 0), updated_at = NOW()
		WHERE id = $1`

	_, err := s.pool.Exec(ctx, q, promotionID)
	if err != nil {
		return domain.Internal(err, "promotionstore.decrement", "update failed")
	}
	return nil
}

func (s *PromotionStore) CreateUsage(ctx context.Context, usage *domain.PromotionUsage) error {
	const q = `
		INSERT INTO promotion_usages (id, promotion_id, user_id, order_id, discount_amount, used_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.pool.Exec(ctx, q,
		usage.ID, usage.PromotionID, usage.UserID, usage.OrderID,
		usage.DiscountAmount, usage.UsedAt)
	if err != nil {
		return domain.Internal(err, "promotionstore.create_usage", "insert failed")
	}
	return nil
}

func (s *PromotionStore) GetUsageByOrder(ctx context.Context, orderID uuid.UUID) (*domain.PromotionUsage, error) {
	const q = `
		SELECT id, promotion_id, user_id, order_id, discount_amount, used_at
		FROM promotion_usages
		WHERE order_id = $1`

	var u domain.PromotionUsage
	err := s.pool.QueryRow(ctx, q, orderID).Scan(
		&u.ID, &u.PromotionID, &u.UserID, &u.OrderID, &u.DiscountAmount, &u.UsedAt)
	if err != nil {
		return nil, notFound(err, "promotionstore.usage", "promotion usage", orderID.String())
	}
	return &u, nil
}

func (s *PromotionStore) DeleteUsage(ctx context.Context, usageID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM promotion_usages WHERE id = $1`, usageID)
	if err != nil {
		return domain.Internal(err, "promotionstore.delete_usage", "delete failed")
	}
	return nil
}
