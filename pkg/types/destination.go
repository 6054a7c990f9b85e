package types

import (
	"github.com/google/uuid"

	"github.com/atelierhq/atelier-backend/pkg/enums"
)

// Destination is the tagged form of a delivery target: either a customer
// or another stock location. The raw to_type/to_id pair on the delivery
// row is only interpreted through this type, never joined on directly.
type Destination struct {
	Kind enums.DestinationKind
	ID   uuid.UUID
}

// CustomerDestination targets a customer.
func CustomerDestination(id uuid.UUID) Destination {
	return Destination{Kind: enums.DestinationCustomer, ID: id}
}

// LocationDestination targets another stock location.
func LocationDestination(id uuid.UUID) Destination {
	return Destination{Kind: enums.DestinationLocation, ID: id}
}

// IsCustomer reports whether the target is a customer.
func (d Destination) IsCustomer() bool {
	return d.Kind == enums.DestinationCustomer
}

// IsLocation reports whether the target is a stock location.
func (d Destination) IsLocation() bool {
	return d.Kind == enums.DestinationLocation
}
