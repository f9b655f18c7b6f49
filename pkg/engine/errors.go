package engine

import (
	"errors"
	"fmt"
)

// RejectionReason codes for client-input errors. Orders rejected with one
// of these never enter the store.
type RejectionReason string

const (
	RejectInvalidOrderData RejectionReason = "INVALID_ORDER_DATA"
	RejectInvalidOrderType RejectionReason = "INVALID_ORDER_TYPE"
	RejectInvalidOrderSide RejectionReason = "INVALID_ORDER_SIDE"
	RejectInvalidQuantity  RejectionReason = "INVALID_QUANTITY"
	RejectMissingPrice     RejectionReason = "MISSING_PRICE"
	RejectMissingStopPrice RejectionReason = "MISSING_STOP_PRICE"
)

// RejectionError is returned synchronously from PlaceOrder for invalid
// requests.
type RejectionError struct {
	Reason  RejectionReason
	Message string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("order rejected (%s): %s", e.Reason, e.Message)
}

func reject(reason RejectionReason, format string, args ...any) *RejectionError {
	return &RejectionError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// ReasonOf extracts the rejection reason from err, or "" when err is not
// a rejection.
func ReasonOf(err error) RejectionReason {
	var re *RejectionError
	if errors.As(err, &re) {
		return re.Reason
	}
	return ""
}

var (
	// ErrNotFound is returned for cancel/query on an unknown order id.
	ErrNotFound = errors.New("order not found")
	// ErrAlreadyTerminal is returned when cancelling a Filled, Cancelled,
	// Rejected or Expired order.
	ErrAlreadyTerminal = errors.New("order already terminal")
	// ErrRiskGate is returned from PlaceOrder when a hard-gated risk check
	// fails. The order exists in the store as Rejected.
	ErrRiskGate = errors.New("order rejected by risk gate")
)
