package cart

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/necs-cart/internal/cart/domain"
)

// record is the persisted shape of one line: {"name":"Tee","price":45,"qty":1}.
// The stored value is a JSON array of records in display order.
type record struct {
	Name  string      `json:"name"`
	Price json.Number `json:"price"`
	Qty   int         `json:"qty"`
}

func encodeCart(c *domain.Cart) (string, error) {
	lines := c.Lines()
	records := make([]record, 0, len(lines))
	for _, l := range lines {
		records = append(records, record{
			Name:  l.Name,
			Price: json.Number(l.UnitPrice.String()),
			Qty:   l.Quantity,
		})
	}
	b, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("cart: encode: %w", err)
	}
	return string(b), nil
}

// decodeCart parses a stored value. An empty string or JSON null is an empty
// cart; anything that is not an array of valid records is an error.
func decodeCart(raw string) (*domain.Cart, error) {
	if raw == "" {
		return domain.NewCart(), nil
	}
	var records []record
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("cart: decode: %w", err)
	}
	lines := make([]domain.Line, 0, len(records))
	for i, r := range records {
		price, err := decimal.NewFromString(r.Price.String())
		if err != nil {
			return nil, fmt.Errorf("cart: decode: line %d price %q: %w", i, r.Price, err)
		}
		lines = append(lines, domain.Line{Name: r.Name, UnitPrice: price, Quantity: r.Qty})
	}
	c, err := domain.FromLines(lines)
	if err != nil {
		return nil, fmt.Errorf("cart: decode: %w", err)
	}
	return c, nil
}
