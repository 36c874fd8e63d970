package services

import (
	"testing"

	"github.com/mekongmart/api/internal/domain"
)

func TestCanCancel(t *testing.T) {
	owner := Actor{UserID: "user-1"}
	stranger := Actor{UserID: "user-2"}
	operator := Actor{UserID: "staff-1", Roles: []string{"staff"}}

	cases := []struct {
		name   string
		actor  Actor
		status domain.OrderStatus
		want   bool
	}{
		{"owner pending", owner, domain.OrderStatusPending, true},
		{"owner processing", owner, domain.OrderStatusProcessing, true},
		{"owner shipping", owner, domain.OrderStatusShipping, false},
		{"owner delivered", owner, domain.OrderStatusDelivered, false},
		{"stranger pending", stranger, domain.OrderStatusPending, false},
		{"operator pending", operator, domain.OrderStatusPending, true},
		{"operator shipping", operator, domain.OrderStatusShipping, true},
		{"operator delivered", operator, domain.OrderStatusDelivered, false},
		{"operator cancelled", operator, domain.OrderStatusCancelled, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := domain.Order{ID: "ord_1", UserID: "user-1", Status: tc.status}
			if got := CanCancel(tc.actor, order); got != tc.want {
				t.Fatalf("CanCancel = %v, want %v", got, tc.want)
			}
		})
	}
}
