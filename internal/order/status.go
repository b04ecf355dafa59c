package order

import "fmt"

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

// transitions lists the forward moves allowed from each non-terminal status.
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled, StatusRefunded},
	StatusProcessing: {StatusShipped, StatusCancelled, StatusRefunded},
	StatusShipped:    {StatusDelivered, StatusCancelled, StatusRefunded},
}

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled, StatusRefunded:
		return st, nil
	default:
		return "", fmt.Errorf("unknown order status %q", s)
	}
}

func (s Status) Terminal() bool {
	_, ok := transitions[s]
	return !ok
}

// CanTransition reports whether from -> to is a legal move of the lifecycle.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanTransitionManually excludes pending -> processing, which only a confirmed
// payment may perform.
func CanTransitionManually(from, to Status) bool {
	if to == StatusProcessing {
		return false
	}
	return CanTransition(from, to)
}
