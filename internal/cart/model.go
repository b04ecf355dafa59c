package cart

import (
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Item is a line snapshot taken from the catalog when it was first added.
type Item struct {
	ProductID      string          `json:"productId"`
	Name           string          `json:"name"`
	Images         []string        `json:"images"`
	Price          decimal.Decimal `json:"price"`
	SelectedSize   string          `json:"selectedSize"`
	SelectedColors []string        `json:"selectedColors"`
	Quantity       int             `json:"quantity"`
}

type Cart struct {
	ID        string    `json:"cartId,omitempty"`
	UserID    string    `json:"userId"`
	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// LineKey identifies a cart line: product, size and the color set regardless of order.
type LineKey struct {
	ProductID string
	Size      string
	Colors    string
}

func NewLineKey(productID, size string, colors []string) LineKey {
	sorted := slices.Clone(colors)
	slices.Sort(sorted)
	return LineKey{ProductID: productID, Size: size, Colors: strings.Join(sorted, "\x1f")}
}

func (it Item) Key() LineKey {
	return NewLineKey(it.ProductID, it.SelectedSize, it.SelectedColors)
}

func (c *Cart) indexOf(key LineKey) int {
	for i := range c.Items {
		if c.Items[i].Key() == key {
			return i
		}
	}
	return -1
}

// TotalQuantity sums item quantities.
func (c *Cart) TotalQuantity() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// TotalPrice sums price*quantity over all lines.
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// MarshalJSON adds the derived totals to every cart response.
func (c Cart) MarshalJSON() ([]byte, error) {
	type plain Cart
	return json.Marshal(struct {
		plain
		TotalQuantity int             `json:"totalQuantity"`
		TotalPrice    decimal.Decimal `json:"totalPrice"`
	}{plain(c), c.TotalQuantity(), c.TotalPrice()})
}
