package domain

import "github.com/shopspring/decimal" // Exact decimal arithmetic for money

// The SPA consumes monto/ingreso/gasto as JSON numbers, so decimals must
// not serialize as quoted strings. Set once, alongside the models.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}
