package domain

// forwardTransitions is the closed set of permitted status moves. The
// forward chain advances one step at a time; the CANCELLED entries cover
// the customer path, operators may additionally cancel from SHIPPING.
var forwardTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipping, OrderStatusCancelled},
	OrderStatusShipping:   {OrderStatusDelivered},
}

// CanTransitionTo reports whether the lifecycle permits moving from s to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range forwardTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Cancellable reports whether the owning customer may still cancel an
// order in s. Cancellation by the customer ends once fulfilment starts
// shipping.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending || s == OrderStatusProcessing
}

// CancellableByOperator reports whether an elevated role may still cancel
// an order in s. Operators may unwind any order short of a terminal state.
func (s OrderStatus) CancellableByOperator() bool {
	return !s.IsTerminal()
}
