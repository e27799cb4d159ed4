// Package apierror provides the error envelopes returned by the API.
// Every 4xx/5xx body goes through here so internal details (SQL, stack
// traces) never reach clients.
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation failed", Fields: fields}
}

// StockError is returned when a deduction exceeds what a lot holds.
type StockError struct {
	Detail    string `json:"detail"`
	FeedLotID string `json:"feed_lot_id"`
	Available string `json:"available"`
	Requested string `json:"requested"`
}
