package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	vendorID := uuid.New()
	categoryID := uuid.New()

	t.Run("creates pending active product", func(t *testing.T) {
		p, err := NewProduct(vendorID, categoryID, "  Shirt  ", "SHIRT-1", 10000)
		require.NoError(t, err)

		assert.Equal(t, "Shirt", p.Name)
		assert.Equal(t, ApprovalStatusPending, p.Status)
		assert.True(t, p.IsActive)
		assert.False(t, p.IsPurchasable())
		assert.NotEqual(t, uuid.Nil, p.ID)
	})

	tests := []struct {
		name       string
		vendorID   uuid.UUID
		categoryID uuid.UUID
		title      string
		sku        string
		price      int64
		code       string
	}{
		{"empty name", vendorID, categoryID, " ", "S", 1, "INVALID_PRODUCT_NAME"},
		{"missing vendor", uuid.Nil, categoryID, "Shirt", "S", 1, "INVALID_VENDOR"},
		{"missing category", vendorID, uuid.Nil, "Shirt", "S", 1, "INVALID_CATEGORY"},
		{"zero price", vendorID, categoryID, "Shirt", "S", 0, "INVALID_PRICE"},
		{"empty sku", vendorID, categoryID, "Shirt", "", 1, "INVALID_SKU"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProduct(tt.vendorID, tt.categoryID, tt.title, tt.sku, tt.price)
			var de *shared.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.code, de.Code)
		})
	}
}

func TestProduct_Lifecycle(t *testing.T) {
	p, err := NewProduct(uuid.New(), uuid.New(), "Mug", "MUG", 500)
	require.NoError(t, err)

	require.NoError(t, p.Approve())
	assert.True(t, p.IsPurchasable())

	p.Disable()
	assert.False(t, p.IsPurchasable())
	assert.Error(t, p.Approve())
}

func TestNewVariant(t *testing.T) {
	productID := uuid.New()

	v, err := NewVariant(productID, "", "SKU1", 10000, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, "Default", v.Name)
	assert.NotNil(t, v.Attributes)
	assert.True(t, v.BelongsTo(productID))
	assert.False(t, v.BelongsTo(uuid.New()))
	assert.True(t, v.HasStock(5))
	assert.False(t, v.HasStock(6))
	assert.False(t, v.HasStock(0))

	_, err = NewVariant(productID, "Red", "SKU1", 0, 5, nil)
	assert.Error(t, err)
	_, err = NewVariant(productID, "Red", "SKU1", 100, -1, nil)
	assert.Error(t, err)
	_, err = NewVariant(uuid.Nil, "Red", "SKU1", 100, 1, nil)
	assert.Error(t, err)
}

func TestNewImage(t *testing.T) {
	img, err := NewImage(uuid.New(), " https://cdn.example.com/a.jpg ", "front", 1)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.jpg", img.URL)

	_, err = NewImage(uuid.New(), "", "front", 1)
	assert.Error(t, err)
}

func TestNewVendorAndCategory(t *testing.T) {
	v, err := NewVendor(uuid.New(), "Imported Products")
	require.NoError(t, err)
	assert.False(t, v.IsVerified)
	assert.True(t, v.CommissionRate.Equal(DefaultCommissionRate))

	v.Verify()
	assert.True(t, v.IsVerified)
	assert.Equal(t, DocumentStatusApproved, v.DocumentStatus)

	_, err = NewVendor(uuid.Nil, "x")
	assert.Error(t, err)

	c, err := NewCategory("General", "")
	require.NoError(t, err)
	assert.Equal(t, "General", c.Name)

	_, err = NewCategory("", "")
	assert.Error(t, err)
}
