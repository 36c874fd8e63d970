package repositories

import (
	"fmt"
	"strings"
)

// Stable error codes surfaced by the order lifecycle transactions.
const (
	CodeInsufficientStock    = "order_insufficient_stock"
	CodeOptionUnavailable    = "order_option_unavailable"
	CodeInvalidTransition    = "order_invalid_transition"
	CodeAlreadyCancelled     = "order_already_cancelled"
	CodePaymentNotPending    = "payment_not_pending"
	CodePaymentAmountMismatch = "payment_amount_mismatch"
)

// StockShortage reports one line whose requested quantity exceeds the
// available stock at transaction time.
type StockShortage struct {
	OptionID  string
	ProductID string
	Requested int
	Available int64
}

// StockError aborts a placement transaction when one or more lines cannot
// be fulfilled. It carries every failing line so handlers can report all
// shortages at once.
type StockError struct {
	Code      string
	Shortages []StockShortage
}

func (e *StockError) Error() string {
	if len(e.Shortages) == 0 {
		return e.Code
	}
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s requested=%d available=%d", s.OptionID, s.Requested, s.Available))
	}
	return fmt.Sprintf("%s: %s", e.Code, strings.Join(parts, ", "))
}

// LifecycleError rejects a state machine mutation that the order's current
// state does not permit.
type LifecycleError struct {
	Op      string
	Code    string
	Message string
}

func (e *LifecycleError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Code)
}

// IsConflict marks lifecycle violations as conflicts so the transport layer
// maps them to 409 responses.
func (e *LifecycleError) IsConflict() bool    { return true }
func (e *LifecycleError) IsNotFound() bool    { return false }
func (e *LifecycleError) IsUnavailable() bool { return false }

// NewLifecycleError builds a LifecycleError with a formatted message.
func NewLifecycleError(op, code, format string, args ...any) *LifecycleError {
	return &LifecycleError{Op: op, Code: code, Message: fmt.Sprintf(format, args...)}
}
