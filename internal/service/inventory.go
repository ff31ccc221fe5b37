package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/minhdn/cuestore/internal/domain"
)

// InventoryService reserves stock for orders and releases it on
// cancellation. Every movement lands in the inventory ledger so a release
// restores exactly what the reservation took.
type InventoryService interface {
	// Reserve decrements stock for each line. If any line lacks stock, the
	// lines already taken are restored and the whole reservation fails.
	Reserve(ctx context.Context, orderID uuid.UUID, lines []domain.CartSnapshotLine) error

	// Release restores all stock still reserved for the order. Idempotent:
	// a second release finds nothing to restore.
	Release(ctx context.Context, orderID uuid.UUID) error
}

type inventoryService struct {
	inventory domain.InventoryStore
	logger    *slog.Logger
}

// NewInventoryService creates an InventoryService.
func NewInventoryService(inventory domain.InventoryStore, logger *slog.Logger) InventoryService {
	return &inventoryService{
		inventory: inventory,
		logger:    logger.With(slog.String("component", "inventory_service")),
	}
}

func (s *inventoryService) Reserve(ctx context.Context, orderID uuid.UUID, lines []domain.CartSnapshotLine) error {
	const op = "inventory.reserve"

	var taken []domain.CartSnapshotLine
	for _, line := range lines {
		ok, err := s.inventory.DecrementStock(ctx, line.ProductID, line.Quantity)
		if err != nil {
			s.rollback(ctx, orderID, taken)
			return domain.WrapError(err, domain.EINTERNAL, op, "failed to decrement stock")
		}
		if !ok {
			s.rollback(ctx, orderID, taken)
			return domain.Errorf(domain.EUNPROCESSABLE, op,
				"Not enough stock for %s", line.ProductName)
		}
		taken = append(taken, line)

		if err := s.inventory.CreateInventoryLog(ctx, &domain.InventoryLog{
			ID:        uuid.New(),
			OrderID:   orderID,
			ProductID: line.ProductID,
			Action:    domain.InventoryActionReserve,
			Quantity:  line.Quantity,
			CreatedAt: time.Now(),
		}); err != nil {
			s.logger.Error("failed to record stock reservation",
				slog.String("order_id", orderID.String()),
				slog.String("product_id", line.ProductID.String()),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

func (s *inventoryService) Release(ctx context.Context, orderID uuid.UUID) error {
	const op = "inventory.release"

	reservations, err := s.inventory.ListReservationsForOrder(ctx, orderID)
	if err != nil {
		return domain.WrapError(err, domain.EINTERNAL, op, "failed to list reservations")
	}

	// RestoreStock applies the increment and the release ledger row
	// atomically: a failed restore leaves the reservation outstanding, so
	// a retried cancellation restores exactly once.
	for _, entry := range reservations {
		if err := s.inventory.RestoreStock(ctx, &domain.InventoryLog{
			ID:        uuid.New(),
			OrderID:   orderID,
			ProductID: entry.ProductID,
			Action:    domain.InventoryActionRelease,
			Quantity:  entry.Quantity,
			CreatedAt: time.Now(),
		}); err != nil {
			s.logger.Error("failed to restore stock",
				slog.String("order_id", orderID.String()),
				slog.String("product_id", entry.ProductID.String()),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

// rollback restores stock taken earlier in a reservation that failed midway.
func (s *inventoryService) rollback(ctx context.Context, orderID uuid.UUID, taken []domain.CartSnapshotLine) {
	for _, line := range taken {
		if err := s.inventory.IncrementStock(ctx, line.ProductID, line.Quantity); err != nil {
			s.logger.Error("failed to roll back stock reservation",
				slog.String("order_id", orderID.String()),
				slog.String("product_id", line.ProductID.String()),
				slog.String("error", err.Error()))
		}
	}
}
