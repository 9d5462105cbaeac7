package payment

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// flutterwaveEnvelope wraps every Flutterwave v3 response
type flutterwaveEnvelope[T any] struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// IsSuccess returns true if the API call itself succeeded
func (e *flutterwaveEnvelope[T]) IsSuccess() bool {
	return e.Status == "success"
}

type flutterwaveCustomer struct {
	Email       string `json:"email"`
	Name        string `json:"name,omitempty"`
	PhoneNumber string `json:"phonenumber,omitempty"`
}

type flutterwaveCustomizations struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// flutterwavePaymentRequest is the body of POST /payments
type flutterwavePaymentRequest struct {
	TxRef          string                    `json:"tx_ref"`
	Amount         json.Number               `json:"amount"`
	Currency       string                    `json:"currency"`
	RedirectURL    string                    `json:"redirect_url"`
	Customer       flutterwaveCustomer       `json:"customer"`
	Customizations flutterwaveCustomizations `json:"customizations"`
	Meta           map[string]string         `json:"meta,omitempty"`
}

type flutterwavePaymentLink struct {
	Link string `json:"link"`
}

// flutterwaveTransaction is the data of GET /transactions/verify_by_reference
type flutterwaveTransaction struct {
	ID              int64           `json:"id"`
	TxRef           string          `json:"tx_ref"`
	FlwRef          string          `json:"flw_ref"`
	Amount          decimal.Decimal `json:"amount"`
	ChargedAmount   decimal.Decimal `json:"charged_amount"`
	Currency        string          `json:"currency"`
	Status          string          `json:"status"`
	ProcessorResp   string          `json:"processor_response"`
	PaymentType     string          `json:"payment_type"`
	CreatedAt       string          `json:"created_at"`
	AuthModel       string          `json:"auth_model,omitempty"`
	NarrationDetail string          `json:"narration,omitempty"`
}
