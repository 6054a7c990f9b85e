package enums

import "fmt"

// PaymentType classifies the settlement plan agreed on an order.
type PaymentType string

const (
	PaymentTypePartly PaymentType = "partly_payment"
	PaymentTypeFull   PaymentType = "full_payment"
)

var validPaymentTypes = []PaymentType{
	PaymentTypePartly,
	PaymentTypeFull,
}

// String implements fmt.Stringer.
func (t PaymentType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known PaymentType.
func (t PaymentType) IsValid() bool {
	for _, candidate := range validPaymentTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParsePaymentType converts raw input into a PaymentType.
func ParsePaymentType(value string) (PaymentType, error) {
	for _, candidate := range validPaymentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment type %q", value)
}

// PaymentKind labels an individual payment row.
type PaymentKind string

const (
	PaymentKindPartial PaymentKind = "PARTIAL"
	PaymentKindFull    PaymentKind = "FULL"
)

// KindForPayment derives the payment row label from the order's plan.
func KindForPayment(planType PaymentType) PaymentKind {
	if planType == PaymentTypeFull {
		return PaymentKindFull
	}
	return PaymentKindPartial
}
