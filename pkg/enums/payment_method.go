package enums

import "fmt"

// PaymentMethod is how a customer settles an order.
type PaymentMethod string

const (
	PaymentMethodCash      PaymentMethod = "cash"
	PaymentMethodTransfer  PaymentMethod = "transfer"
	PaymentMethodDebitCard PaymentMethod = "debit_card"
	PaymentMethodEWallet   PaymentMethod = "e_wallet"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCash,
	PaymentMethodTransfer,
	PaymentMethodDebitCard,
	PaymentMethodEWallet,
}

// String implements fmt.Stringer.
func (m PaymentMethod) String() string {
	return string(m)
}

// IsValid reports whether the value is a known PaymentMethod.
func (m PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
