package enums

import "fmt"

// DestinationKind discriminates the polymorphic delivery target.
type DestinationKind string

const (
	DestinationCustomer DestinationKind = "customer"
	DestinationLocation DestinationKind = "location"
)

var validDestinationKinds = []DestinationKind{
	DestinationCustomer,
	DestinationLocation,
}

// String implements fmt.Stringer.
func (k DestinationKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known DestinationKind.
func (k DestinationKind) IsValid() bool {
	for _, candidate := range validDestinationKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseDestinationKind converts raw input into a DestinationKind.
func ParseDestinationKind(value string) (DestinationKind, error) {
	for _, candidate := range validDestinationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid destination kind %q", value)
}
