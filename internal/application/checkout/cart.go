package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// AddToCart adds a product to the user's cart, merging with an existing line
// for the same product and variant. Stock is not reserved until checkout.
func (s *Service) AddToCart(ctx context.Context, userID uuid.UUID, req AddToCartRequest) (*CartItemResponse, error) {
	product, err := s.repos.Products.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsPurchasable() {
		return nil, shared.NewDomainError(shared.CodeProductUnavailable, fmt.Sprintf("Product %q is not available", product.Name))
	}

	var variant *catalog.Variant
	if req.VariantID != nil {
		variant, err = s.repos.Variants.FindByID(ctx, *req.VariantID)
		if err != nil {
			return nil, err
		}
		if !variant.IsActive || !variant.BelongsTo(product.ID) {
			return nil, shared.NewDomainError(shared.CodeVariantUnavailable, fmt.Sprintf("Variant %q of %q is not available", variant.Name, product.Name))
		}
	}

	line, err := s.repos.Cart.FindLine(ctx, userID, product.ID, req.VariantID)
	switch {
	case err == nil:
		if err := line.AddQuantity(req.Quantity); err != nil {
			return nil, err
		}
	case shared.IsNotFound(err):
		line, err = order.NewCartItem(userID, product.ID, req.VariantID, req.Quantity)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if err := s.repos.Cart.Save(ctx, line); err != nil {
		return nil, err
	}
	resp := toCartItemResponse(line, product, variant)
	return &resp, nil
}

// ListCart returns the user's cart priced at current catalog prices
func (s *Service) ListCart(ctx context.Context, userID uuid.UUID) (*CartResponse, error) {
	lines, err := s.repos.Cart.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &CartResponse{
		Items:    make([]CartItemResponse, 0, len(lines)),
		Currency: s.policy.Currency,
	}
	for i := range lines {
		line := &lines[i]
		product, err := s.repos.Products.FindByID(ctx, line.ProductID)
		if err != nil {
			if shared.IsNotFound(err) {
				logger.L(ctx).Debug("cart line references a missing product", zap.String("product_id", line.ProductID.String()))
				continue
			}
			return nil, err
		}
		var variant *catalog.Variant
		if line.VariantID != nil {
			variant, err = s.repos.Variants.FindByID(ctx, *line.VariantID)
			if err != nil && !shared.IsNotFound(err) {
				return nil, err
			}
		}
		item := toCartItemResponse(line, product, variant)
		if item.Available {
			resp.Subtotal += item.LineTotal
		}
		resp.Items = append(resp.Items, item)
	}
	return resp, nil
}

// RemoveFromCart deletes one of the user's cart lines
func (s *Service) RemoveFromCart(ctx context.Context, userID, itemID uuid.UUID) error {
	return s.repos.Cart.Delete(ctx, itemID, userID)
}

func toCartItemResponse(line *order.CartItem, product *catalog.Product, variant *catalog.Variant) CartItemResponse {
	resp := CartItemResponse{
		ID:          line.ID,
		ProductID:   line.ProductID,
		VariantID:   line.VariantID,
		ProductName: product.Name,
		Quantity:    line.Quantity,
		UnitPrice:   product.BasePrice,
		Available:   product.IsPurchasable(),
	}
	switch {
	case variant != nil:
		resp.VariantName = variant.Name
		resp.UnitPrice = variant.Price
		resp.Available = resp.Available && variant.IsActive && variant.HasStock(line.Quantity)
	case line.VariantID != nil:
		resp.Available = false
	}
	resp.LineTotal = resp.UnitPrice * int64(line.Quantity)
	return resp
}
