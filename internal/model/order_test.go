package model

import "testing"

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		name string
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{"pending to approved", OrderPending, OrderApproved, true},
		{"pending to rejected", OrderPending, OrderRejected, true},
		{"approved to served", OrderApproved, OrderServed, true},
		{"pending to served skips approval", OrderPending, OrderServed, false},
		{"approved to rejected", OrderApproved, OrderRejected, false},
		{"rejected is terminal", OrderRejected, OrderApproved, false},
		{"served is terminal", OrderServed, OrderApproved, false},
		{"served to served", OrderServed, OrderServed, false},
		{"approved to pending", OrderApproved, OrderPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	if OrderPending.Terminal() || OrderApproved.Terminal() {
		t.Error("pending and approved must not be terminal")
	}
	if !OrderRejected.Terminal() || !OrderServed.Terminal() {
		t.Error("rejected and served must be terminal")
	}
}
