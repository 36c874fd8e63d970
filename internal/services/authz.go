package services

import (
	"strings"

	"github.com/mekongmart/api/internal/domain"
)

// Operator roles. Operators manage every order; customers only their own.
const (
	roleStaff = "staff"
	roleAdmin = "admin"
)

// IsOperator reports whether the actor carries an operator role.
func (a Actor) IsOperator() bool {
	for _, role := range a.Roles {
		switch strings.ToLower(strings.TrimSpace(role)) {
		case roleStaff, roleAdmin:
			return true
		}
	}
	return false
}

// Owns reports whether the actor is the customer the order belongs to.
func (a Actor) Owns(order domain.Order) bool {
	return a.UserID != "" && a.UserID == order.UserID
}

// CanViewOrder allows operators and the owning customer.
func CanViewOrder(actor Actor, order domain.Order) bool {
	return actor.IsOperator() || actor.Owns(order)
}

// CanListAllOrders allows operators only; customers are scoped to their own
// orders by the service.
func CanListAllOrders(actor Actor) bool {
	return actor.IsOperator()
}

// CanTransition allows operators only. Customers never drive the forward
// lifecycle.
func CanTransition(actor Actor) bool {
	return actor.IsOperator()
}

// CanCancel allows operators for any non-terminal order and the owning
// customer while the order has not started shipping. Status eligibility is
// re-checked inside the cancellation transaction.
func CanCancel(actor Actor, order domain.Order) bool {
	if actor.IsOperator() {
		return order.Status.CancellableByOperator()
	}
	return actor.Owns(order) && order.Status.Cancellable()
}

// CanRestock allows operators only.
func CanRestock(actor Actor) bool {
	return actor.IsOperator()
}
