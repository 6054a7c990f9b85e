package enums

import "fmt"

// DeliveryType distinguishes customer shipments from stock transfers
// between locations.
type DeliveryType string

const (
	DeliveryTypeOrder    DeliveryType = "order_delivery"
	DeliveryTypeTransfer DeliveryType = "internal_transfer"
)

var validDeliveryTypes = []DeliveryType{
	DeliveryTypeOrder,
	DeliveryTypeTransfer,
}

// String implements fmt.Stringer.
func (t DeliveryType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known DeliveryType.
func (t DeliveryType) IsValid() bool {
	for _, candidate := range validDeliveryTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseDeliveryType converts raw input into a DeliveryType.
func ParseDeliveryType(value string) (DeliveryType, error) {
	for _, candidate := range validDeliveryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery type %q", value)
}
