package domain

import "testing"

func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusProcessing, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusShipping, false},
		{OrderStatusProcessing, OrderStatusShipping, true},
		{OrderStatusProcessing, OrderStatusCancelled, true},
		{OrderStatusShipping, OrderStatusDelivered, true},
		{OrderStatusShipping, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusShipping, false},
		{OrderStatusCancelled, OrderStatusProcessing, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCancellationEligibilityByRole(t *testing.T) {
	cases := []struct {
		status   OrderStatus
		customer bool
		operator bool
	}{
		{OrderStatusPending, true, true},
		{OrderStatusProcessing, true, true},
		{OrderStatusShipping, false, true},
		{OrderStatusDelivered, false, false},
		{OrderStatusCancelled, false, false},
	}
	for _, tc := range cases {
		if got := tc.status.Cancellable(); got != tc.customer {
			t.Errorf("%s Cancellable() = %v, want %v", tc.status, got, tc.customer)
		}
		if got := tc.status.CancellableByOperator(); got != tc.operator {
			t.Errorf("%s CancellableByOperator() = %v, want %v", tc.status, got, tc.operator)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, status := range []OrderStatus{OrderStatusPending, OrderStatusProcessing, OrderStatusShipping} {
		if status.IsTerminal() {
			t.Errorf("%s must not be terminal", status)
		}
	}
	for _, status := range []OrderStatus{OrderStatusDelivered, OrderStatusCancelled} {
		if !status.IsTerminal() {
			t.Errorf("%s must be terminal", status)
		}
	}
}
