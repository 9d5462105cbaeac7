package middleware

import (
	"errors"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	TransactionID string `json:"transaction_id" binding:"required"`
	Quantity      int    `json:"quantity" binding:"min=1"`
	Method        string `json:"payment_method" binding:"oneof=CARD CASH_ON_DELIVERY"`
}

func TestValidationDetails(t *testing.T) {
	SetupValidator()

	err := binding.Validator.ValidateStruct(&sampleRequest{Method: "CHEQUE"})
	require.Error(t, err)

	details := ValidationDetails(err)
	require.Len(t, details, 3)
	byField := map[string]string{}
	for _, d := range details {
		byField[d.Field] = d.Message
	}
	assert.Equal(t, "This field is required", byField["transaction_id"])
	assert.Equal(t, "Must be at least 1", byField["quantity"])
	assert.Equal(t, "Must be one of: CARD CASH_ON_DELIVERY", byField["payment_method"])

	assert.Nil(t, ValidationDetails(errors.New("boom")))
}
