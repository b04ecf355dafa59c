package catalog

import "github.com/shopspring/decimal"

type Product struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
	Images []string        `json:"images"`
	Stock  int             `json:"stock"`
}
