package enums

import "fmt"

// DeliveryStatus tracks a shipment from scheduling to hand-off.
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "pending"
	DeliveryStatusScheduled DeliveryStatus = "scheduled"
	DeliveryStatusInTransit DeliveryStatus = "in_transit"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusCancelled DeliveryStatus = "cancelled"
)

var validDeliveryStatuses = []DeliveryStatus{
	DeliveryStatusPending,
	DeliveryStatusScheduled,
	DeliveryStatusInTransit,
	DeliveryStatusDelivered,
	DeliveryStatusCancelled,
}

// String implements fmt.Stringer.
func (s DeliveryStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known DeliveryStatus.
func (s DeliveryStatus) IsValid() bool {
	for _, candidate := range validDeliveryStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseDeliveryStatus converts raw input into a DeliveryStatus.
func ParseDeliveryStatus(value string) (DeliveryStatus, error) {
	for _, candidate := range validDeliveryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery status %q", value)
}
