package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsMatchesByCode(t *testing.T) {
	err := NewNotFoundError("order", "123")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrAlreadyExists))
	assert.Equal(t, "order 123 not found", err.Error())
}

func TestDomainError_WrappedThroughFmt(t *testing.T) {
	cause := errors.New("lock timeout")
	err := fmt.Errorf("checkout: %w", WrapDomainError(CodeRetryable, "database busy", cause))

	assert.True(t, IsRetryable(err))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "database busy: lock timeout")

	var de *DomainError
	assert.True(t, errors.As(err, &de))
	assert.Equal(t, CodeRetryable, de.Code)
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("quantity", "must be at least 1")

	assert.Equal(t, CodeValidation, err.Code)
	assert.Equal(t, "quantity: must be at least 1", err.Message)
	assert.False(t, IsNotFound(err))
}

func TestNewPaginated(t *testing.T) {
	tests := []struct {
		name      string
		total     int64
		pageSize  int
		wantPages int
	}{
		{"empty", 0, 20, 0},
		{"exact", 40, 20, 2},
		{"remainder", 41, 20, 3},
		{"zero page size", 10, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPaginated([]int{}, tt.total, 1, tt.pageSize)
			assert.Equal(t, tt.wantPages, p.TotalPages)
		})
	}
}

func TestFilter_Normalize(t *testing.T) {
	f := Filter{Page: 0, PageSize: 500, OrderDir: "sideways"}.Normalize()

	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 100, f.PageSize)
	assert.Equal(t, "desc", f.OrderDir)
	assert.Equal(t, 0, f.Offset())
}
