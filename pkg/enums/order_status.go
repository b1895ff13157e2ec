package enums

import "fmt"

// OrderStatus tracks the lifecycle of an order after creation.
type OrderStatus string

const (
	OrderStatusInPreparation    OrderStatus = "in_preparation"
	OrderStatusReadyForDelivery OrderStatus = "ready_for_delivery"
	OrderStatusCompleted        OrderStatus = "completed"
	OrderStatusCancelled        OrderStatus = "cancelled"
	OrderStatusFailedDelivery   OrderStatus = "failed_delivery"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusInPreparation,
	OrderStatusReadyForDelivery,
	OrderStatusCompleted,
	OrderStatusCancelled,
	OrderStatusFailedDelivery,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is legal from this status.
func (o OrderStatus) IsTerminal() bool {
	return o == OrderStatusCompleted || o == OrderStatusCancelled
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
