package enums

// Currency is an ISO-4217 lowercase currency code as Stripe expects it.
type Currency string

const (
	CurrencyUSD Currency = "usd"
)

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}
