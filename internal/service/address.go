package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/minhdn/cuestore/internal/domain"
)

// AddressService manages a user's shipping address book. Every mutation is
// ownership-checked; at most one address per user is the default.
type AddressService interface {
	ListAddresses(ctx context.Context, userID uuid.UUID) ([]domain.Address, error)
	GetAddress(ctx context.Context, userID, addressID uuid.UUID) (*domain.Address, error)
	CreateAddress(ctx context.Context, userID uuid.UUID, addr domain.Address) (*domain.Address, error)
	UpdateAddress(ctx context.Context, userID uuid.UUID, addr domain.Address) (*domain.Address, error)
	// DeleteAddress removes an address unless an order references it.
	DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) error
	SetDefaultAddress(ctx context.Context, userID, addressID uuid.UUID) error
}

type addressService struct {
	addresses domain.AddressStore
	orders    domain.OrderStore
	logger    *slog.Logger
}

// NewAddressService creates an AddressService.
func NewAddressService(addresses domain.AddressStore, orders domain.OrderStore, logger *slog.Logger) AddressService {
	return &addressService{
		addresses: addresses,
		orders:    orders,
		logger:    logger.With(slog.String("component", "address_service")),
	}
}

func (s *addressService) ListAddresses(ctx context.Context, userID uuid.UUID) ([]domain.Address, error) {
	list, err := s.addresses.ListAddressesForUser(ctx, userID)
	if err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, "address.list", "failed to list addresses")
	}
	return list, nil
}

func (s *addressService) GetAddress(ctx context.Context, userID, addressID uuid.UUID) (*domain.Address, error) {
	return s.owned(ctx, userID, addressID)
}

func (s *addressService) CreateAddress(ctx context.Context, userID uuid.UUID, addr domain.Address) (*domain.Address, error) {
	const op = "address.create"

	if addr.RecipientName == "" || addr.AddressLine == "" || addr.Province == "" {
		return nil, domain.Invalid(op, "recipient name, address line and province are required")
	}

	existing, err := s.addresses.ListAddressesForUser(ctx, userID)
	if err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to list addresses")
	}

	now := time.Now()
	addr.ID = uuid.New()
	addr.UserID = userID
	addr.CreatedAt = now
	addr.UpdatedAt = now

	// the first address always becomes the default
	if len(existing) == 0 {
		addr.IsDefault = true
	} else if addr.IsDefault {
		if err := s.addresses.ClearDefaultForUser(ctx, userID); err != nil {
			return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to clear default address")
		}
	}

	if err := s.addresses.CreateAddress(ctx, &addr); err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to create address")
	}
	return &addr, nil
}

func (s *addressService) UpdateAddress(ctx context.Context, userID uuid.UUID, addr domain.Address) (*domain.Address, error) {
	const op = "address.update"

	current, err := s.owned(ctx, userID, addr.ID)
	if err != nil {
		return nil, err
	}

	if addr.IsDefault && !current.IsDefault {
		if err := s.addresses.ClearDefaultForUser(ctx, userID); err != nil {
			return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to clear default address")
		}
	}

	addr.UserID = userID
	addr.CreatedAt = current.CreatedAt
	addr.UpdatedAt = time.Now()
	if err := s.addresses.UpdateAddress(ctx, &addr); err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to update address")
	}
	return &addr, nil
}

func (s *addressService) DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) error {
	const op = "address.delete"

	if _, err := s.owned(ctx, userID, addressID); err != nil {
		return err
	}

	inUse, err := s.orders.AddressInUse(ctx, addressID)
	if err != nil {
		return domain.WrapError(err, domain.EINTERNAL, op, "failed to check address references")
	}
	if inUse {
		return ErrAddressInUse
	}

	if err := s.addresses.DeleteAddress(ctx, addressID); err != nil {
		return domain.WrapError(err, domain.EINTERNAL, op, "failed to delete address")
	}
	return nil
}

func (s *addressService) SetDefaultAddress(ctx context.Context, userID, addressID uuid.UUID) error {
	const op = "address.set_default"

	addr, err := s.owned(ctx, userID, addressID)
	if err != nil {
		return err
	}
	if addr.IsDefault {
		return nil
	}

	if err := s.addresses.ClearDefaultForUser(ctx, userID); err != nil {
		return domain.WrapError(err, domain.EINTERNAL, op, "failed to clear default address")
	}
	addr.IsDefault = true
	addr.UpdatedAt = time.Now()
	if err := s.addresses.UpdateAddress(ctx, addr); err != nil {
		return domain.WrapError(err, domain.EINTERNAL, op, "failed to set default address")
	}
	return nil
}

func (s *addressService) owned(ctx context.Context, userID, addressID uuid.UUID) (*domain.Address, error) {
	addr, err := s.addresses.GetAddress(ctx, addressID)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			return nil, ErrAddressNotFound
		}
		return nil, domain.WrapError(err, domain.EINTERNAL, "address.get", "failed to load address")
	}
	if addr.UserID != userID {
		return nil, domain.Forbidden("address.get", "address belongs to another user")
	}
	return addr, nil
}
