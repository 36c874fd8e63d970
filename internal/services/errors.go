package services

import (
	"errors"
	"fmt"

	"github.com/mekongmart/api/internal/repositories"
)

var (
	// ErrCartInvalidInput signals the caller provided invalid cart arguments.
	ErrCartInvalidInput = errors.New("cart: invalid input")
	// ErrCartItemNotFound indicates the cart line could not be located.
	ErrCartItemNotFound = errors.New("cart: item not found")
	// ErrCartOptionNotFound indicates the referenced option does not exist.
	ErrCartOptionNotFound = errors.New("cart: option not found")
	// ErrCartOptionUnavailable indicates the option exists but cannot be sold.
	ErrCartOptionUnavailable = errors.New("cart: option unavailable")

	// ErrOrderInvalidInput signals invalid placement or transition arguments.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the order could not be located.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderForbidden indicates the actor may not act on the order.
	ErrOrderForbidden = errors.New("order: forbidden")
	// ErrOrderEmptyCart rejects placement from a cart with no usable lines.
	ErrOrderEmptyCart = errors.New("order: cart is empty")
	// ErrOrderInsufficientStock rejects placement when stock no longer
	// covers the requested quantities.
	ErrOrderInsufficientStock = errors.New("order: insufficient stock")
	// ErrOrderInvalidStatus rejects a transition the lifecycle does not
	// permit.
	ErrOrderInvalidStatus = errors.New("order: invalid status transition")
	// ErrOrderNotCancellable rejects cancellation once the caller's
	// eligibility window has closed: past PROCESSING for customers, any
	// terminal status for operators.
	ErrOrderNotCancellable = errors.New("order: not cancellable")

	// ErrPaymentNotPending indicates no payment record is awaiting the
	// gateway result.
	ErrPaymentNotPending = errors.New("payment: no pending payment")
	// ErrPaymentAmountMismatch indicates the gateway reported a different
	// amount than the order total.
	ErrPaymentAmountMismatch = errors.New("payment: amount mismatch")

	// ErrInventoryInvalidInput signals invalid restock arguments.
	ErrInventoryInvalidInput = errors.New("inventory: invalid input")
	// ErrInventoryOptionNotFound indicates the option to restock is missing.
	ErrInventoryOptionNotFound = errors.New("inventory: option not found")

	// ErrUnavailable marks transient backend failures worth retrying.
	ErrUnavailable = errors.New("service temporarily unavailable")
)

// mapRepositoryError lifts repository error categories onto the service
// sentinels so handlers never inspect persistence errors directly.
func mapRepositoryError(err error, notFound error) error {
	if err == nil {
		return nil
	}

	var stockErr *repositories.StockError
	if errors.As(err, &stockErr) {
		return fmt.Errorf("%w: %w", ErrOrderInsufficientStock, stockErr)
	}

	var lifecycleErr *repositories.LifecycleError
	if errors.As(err, &lifecycleErr) {
		switch lifecycleErr.Code {
		case repositories.CodeAlreadyCancelled, repositories.CodeInvalidTransition:
			return fmt.Errorf("%w: %s", ErrOrderInvalidStatus, lifecycleErr.Message)
		case repositories.CodePaymentNotPending:
			return fmt.Errorf("%w: %s", ErrPaymentNotPending, lifecycleErr.Message)
		case repositories.CodePaymentAmountMismatch:
			return fmt.Errorf("%w: %s", ErrPaymentAmountMismatch, lifecycleErr.Message)
		}
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			if notFound != nil {
				return fmt.Errorf("%w: %v", notFound, err)
			}
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	return err
}
