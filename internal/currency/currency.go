package currency

import "fmt"

// Currency is a closed enumeration of supported wallet denominations.
// Values are validated once at the system boundary; internal code may
// assume a Currency is one of the declared constants.
type Currency string

const (
	USD Currency = "USD"
	INR Currency = "INR"
	EUR Currency = "EUR"
)

// Parse validates a boundary-supplied currency code.
func Parse(code string) (Currency, error) {
	switch Currency(code) {
	case USD, INR, EUR:
		return Currency(code), nil
	default:
		return "", fmt.Errorf("unsupported currency %q", code)
	}
}

func (c Currency) String() string {
	return string(c)
}
