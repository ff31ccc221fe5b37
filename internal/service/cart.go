package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/minhdn/cuestore/internal/domain"
)

// CartService provides cart mutation and the priced snapshot the order
// orchestrator checks out from.
type CartService interface {
	// GetCart returns the user's cart as a priced view, creating an empty
	// cart on first access.
	GetCart(ctx context.Context, userID uuid.UUID) (*CartView, error)

	// AddItem adds a product to the cart, merging with an existing line.
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int32) (*CartView, error)

	// UpdateItemQuantity sets a cart line's quantity.
	UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int32) (*CartView, error)

	// RemoveItem deletes a cart line.
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartView, error)

	// ClearCart deletes all cart lines.
	ClearCart(ctx context.Context, userID uuid.UUID) error

	// Snapshot returns a validated, priced view of the cart for checkout.
	// With a selection, only those lines are included and each requested
	// quantity is clamped to [1, line quantity]. Every included product must
	// be active with sufficient stock; an empty result is an error.
	Snapshot(ctx context.Context, userID uuid.UUID, selection []domain.SelectedCartItem) (*domain.CartSnapshot, error)

	// RemoveLines deletes the given cart lines, used after the ordered
	// lines leave the cart.
	RemoveLines(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) error
}

// CartView is the customer-facing cart projection: every line priced at the
// current catalog price, with availability for the storefront to render.
type CartView struct {
	Cart       domain.Cart
	Lines      []domain.CartSnapshotLine
	TotalItems int32
	Subtotal   decimal.Decimal
}

type cartService struct {
	carts   domain.CartStore
	catalog domain.ProductCatalog
	logger  *slog.Logger
}

// NewCartService creates a CartService backed by the given stores.
func NewCartService(carts domain.CartStore, catalog domain.ProductCatalog, logger *slog.Logger) CartService {
	return &cartService{
		carts:   carts,
		catalog: catalog,
		logger:  logger.With(slog.String("component", "cart_service")),
	}
}

func (s *cartService) getOrCreateCart(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	cart, err := s.carts.GetCartByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if domain.ErrorCode(err) != domain.ENOTFOUND {
		return nil, domain.WrapError(err, domain.EINTERNAL, "cart.get", "failed to load cart")
	}

	now := time.Now()
	cart = &domain.Cart{ID: uuid.New(), UserID: userID, CreatedAt: now, UpdatedAt: now}
	if err := s.carts.CreateCart(ctx, cart); err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, "cart.create", "failed to create cart")
	}
	return cart, nil
}

func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	cart, err := s.getOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, cart)
}

func (s *cartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int32) (*CartView, error) {
	const op = "cart.add_item"

	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			return nil, ErrProductNotFound
		}
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to load product")
	}
	if !product.Active() {
		return nil, ErrProductInactive
	}

	cart, err := s.getOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	existing, err := s.carts.FindCartItemByProduct(ctx, cart.ID, productID)
	switch {
	case err == nil:
		newQty := existing.Quantity + quantity
		if newQty > product.StockQuantity {
			return nil, outOfStock(op, product)
		}
		existing.Quantity = newQty
		existing.UnitPrice = product.Price
		existing.LineTotal = product.Price.Mul(decimal.NewFromInt32(newQty))
		existing.UpdatedAt = now
		if err := s.carts.UpdateCartItem(ctx, existing); err != nil {
			return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to update cart item")
		}
	case domain.ErrorCode(err) == domain.ENOTFOUND:
		if quantity > product.StockQuantity {
			return nil, outOfStock(op, product)
		}
		item := &domain.CartItem{
			ID:        uuid.New(),
			CartID:    cart.ID,
			ProductID: productID,
			Quantity:  quantity,
			UnitPrice: product.Price,
			LineTotal: product.Price.Mul(decimal.NewFromInt32(quantity)),
			AddedAt:   now,
			UpdatedAt: now,
		}
		if err := s.carts.InsertCartItem(ctx, item); err != nil {
			return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to add cart item")
		}
	default:
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to look up cart item")
	}

	if err := s.carts.TouchCart(ctx, cart.ID); err != nil {
		s.logger.Warn("failed to touch cart", slog.String("cart_id", cart.ID.String()), slog.String("error", err.Error()))
	}
	return s.buildView(ctx, cart)
}

func (s *cartService) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int32) (*CartView, error) {
	const op = "cart.update_item"

	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	cart, item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	product, err := s.catalog.GetProduct(ctx, item.ProductID)
	if err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to load product")
	}
	if quantity > product.StockQuantity {
		return nil, outOfStock(op, product)
	}

	item.Quantity = quantity
	item.UnitPrice = product.Price
	item.LineTotal = product.Price.Mul(decimal.NewFromInt32(quantity))
	item.UpdatedAt = time.Now()
	if err := s.carts.UpdateCartItem(ctx, item); err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to update cart item")
	}
	return s.buildView(ctx, cart)
}

func (s *cartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartView, error) {
	cart, item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.carts.DeleteCartItem(ctx, item.ID); err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, "cart.remove_item", "failed to remove cart item")
	}
	return s.buildView(ctx, cart)
}

func (s *cartService) ClearCart(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.carts.GetCartByUser(ctx, userID)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			return nil // nothing to clear
		}
		return domain.WrapError(err, domain.EINTERNAL, "cart.clear", "failed to load cart")
	}
	if err := s.carts.ClearCart(ctx, cart.ID); err != nil {
		return domain.WrapError(err, domain.EINTERNAL, "cart.clear", "failed to clear cart")
	}
	return nil
}

func (s *cartService) RemoveLines(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) error {
	if len(itemIDs) == 0 {
		return nil
	}
	cart, err := s.carts.GetCartByUser(ctx, userID)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			return nil
		}
		return domain.WrapError(err, domain.EINTERNAL, "cart.remove_lines", "failed to load cart")
	}
	if err := s.carts.DeleteCartItems(ctx, cart.ID, itemIDs); err != nil {
		return domain.WrapError(err, domain.EINTERNAL, "cart.remove_lines", "failed to remove cart lines")
	}
	return nil
}

func (s *cartService) Snapshot(ctx context.Context, userID uuid.UUID, selection []domain.SelectedCartItem) (*domain.CartSnapshot, error) {
	const op = "cart.snapshot"

	cart, err := s.carts.GetCartByUser(ctx, userID)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			return nil, ErrEmptyCart
		}
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to load cart")
	}

	items, err := s.carts.ListCartItems(ctx, cart.ID)
	if err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to load cart items")
	}

	// narrow to the selection, clamping requested quantities to the line
	var chosen []domain.CartItem
	if selection == nil {
		chosen = items
	} else {
		byID := make(map[uuid.UUID]domain.CartItem, len(items))
		for _, it := range items {
			byID[it.ID] = it
		}
		for _, sel := range selection {
			item, ok := byID[sel.CartItemID]
			if !ok {
				return nil, ErrCartItemNotFound
			}
			qty := sel.Quantity
			if qty <= 0 || qty > item.Quantity {
				qty = item.Quantity
			}
			if qty < 1 {
				qty = 1
			}
			item.Quantity = qty
			chosen = append(chosen, item)
		}
		if len(chosen) == 0 {
			return nil, ErrEmptySelection
		}
	}
	if len(chosen) == 0 {
		return nil, ErrEmptyCart
	}

	snapshot := &domain.CartSnapshot{UserID: userID, Subtotal: decimal.Zero}
	for _, item := range chosen {
		product, err := s.catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to load product")
		}
		if !product.Active() {
			return nil, domain.Errorf(domain.EUNPROCESSABLE, op, "%s is no longer available", product.Name)
		}
		if item.Quantity > product.StockQuantity {
			return nil, outOfStock(op, product)
		}

		lineTotal := product.Price.Mul(decimal.NewFromInt32(item.Quantity))
		snapshot.Lines = append(snapshot.Lines, domain.CartSnapshotLine{
			CartItemID:     item.ID,
			ProductID:      product.ID,
			ProductName:    product.Name,
			ProductSKU:     product.SKU,
			UnitPrice:      product.Price,
			Quantity:       item.Quantity,
			LineTotal:      lineTotal,
			AvailableStock: product.StockQuantity,
			WeightGrams:    product.WeightGrams,
			Dimensions:     product.Dimensions,
		})
		snapshot.TotalItems += item.Quantity
		snapshot.Subtotal = snapshot.Subtotal.Add(lineTotal)
	}
	return snapshot, nil
}

// buildView prices the cart at current catalog prices without enforcing
// stock, so customers can still see lines that went out of stock.
func (s *cartService) buildView(ctx context.Context, cart *domain.Cart) (*CartView, error) {
	items, err := s.carts.ListCartItems(ctx, cart.ID)
	if err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, "cart.view", "failed to load cart items")
	}

	view := &CartView{Cart: *cart, Subtotal: decimal.Zero}
	for _, item := range items {
		product, err := s.catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			s.logger.Warn("cart references missing product",
				slog.String("product_id", item.ProductID.String()),
				slog.String("error", err.Error()))
			continue
		}
		lineTotal := product.Price.Mul(decimal.NewFromInt32(item.Quantity))
		view.Lines = append(view.Lines, domain.CartSnapshotLine{
			CartItemID:     item.ID,
			ProductID:      product.ID,
			ProductName:    product.Name,
			ProductSKU:     product.SKU,
			UnitPrice:      product.Price,
			Quantity:       item.Quantity,
			LineTotal:      lineTotal,
			AvailableStock: product.StockQuantity,
			WeightGrams:    product.WeightGrams,
			Dimensions:     product.Dimensions,
		})
		view.TotalItems += item.Quantity
		view.Subtotal = view.Subtotal.Add(lineTotal)
	}
	return view, nil
}

func (s *cartService) ownedItem(ctx context.Context, userID, itemID uuid.UUID) (*domain.Cart, *domain.CartItem, error) {
	cart, err := s.carts.GetCartByUser(ctx, userID)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			return nil, nil, ErrCartItemNotFound
		}
		return nil, nil, domain.WrapError(err, domain.EINTERNAL, "cart.item", "failed to load cart")
	}
	item, err := s.carts.GetCartItem(ctx, itemID)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			return nil, nil, ErrCartItemNotFound
		}
		return nil, nil, domain.WrapError(err, domain.EINTERNAL, "cart.item", "failed to load cart item")
	}
	if item.CartID != cart.ID {
		return nil, nil, domain.Forbidden("cart.item", "cart item belongs to another user")
	}
	return cart, item, nil
}

func outOfStock(op string, product *domain.Product) error {
	return domain.Errorf(domain.EUNPROCESSABLE, op,
		"Not enough stock for %s: %d left", product.Name, product.StockQuantity)
}
