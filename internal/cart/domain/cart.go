package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidLine is returned by FromLines when a line breaks a cart invariant.
var ErrInvalidLine = errors.New("invalid cart line")

// Line is one distinct product the visitor has added.
type Line struct {
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is an ordered list of lines, first-added first, with at most one
// line per name. The zero value is an empty cart.
type Cart struct {
	lines []Line
}

func NewCart() *Cart {
	return &Cart{}
}

// FromLines builds a cart from previously persisted lines. Any line with a
// quantity below one, a negative price, or a repeated name rejects the
// whole list.
func FromLines(lines []Line) (*Cart, error) {
	seen := make(map[string]struct{}, len(lines))
	out := make([]Line, 0, len(lines))
	for i, l := range lines {
		if l.Quantity < 1 {
			return nil, fmt.Errorf("%w: line %d %q has quantity %d", ErrInvalidLine, i, l.Name, l.Quantity)
		}
		if l.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: line %d %q has negative price", ErrInvalidLine, i, l.Name)
		}
		if _, dup := seen[l.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate line %q", ErrInvalidLine, l.Name)
		}
		seen[l.Name] = struct{}{}
		out = append(out, l)
	}
	return &Cart{lines: out}, nil
}

// Add records one more unit of name. The price is only used when the line
// is new; an existing line keeps the price it was first added with.
func (c *Cart) Add(name string, unitPrice decimal.Decimal) {
	if i := c.indexOf(name); i >= 0 {
		c.lines[i].Quantity++
		return
	}
	if unitPrice.IsNegative() {
		unitPrice = decimal.Zero
	}
	c.lines = append(c.lines, Line{Name: name, UnitPrice: unitPrice, Quantity: 1})
}

// Adjust adds delta to the quantity of the line at index and drops the line
// once it reaches zero. It reports false and leaves the cart untouched when
// index is out of range or delta is zero.
func (c *Cart) Adjust(index, delta int) bool {
	if index < 0 || index >= len(c.lines) || delta == 0 {
		return false
	}
	c.lines[index].Quantity += delta
	if c.lines[index].Quantity <= 0 {
		c.lines = append(c.lines[:index], c.lines[index+1:]...)
	}
	return true
}

// AdjustByName is Adjust keyed by the line name instead of its position.
func (c *Cart) AdjustByName(name string, delta int) bool {
	return c.Adjust(c.indexOf(name), delta)
}

// Lines returns a copy of the lines in display order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Len() int { return len(c.lines) }

func (c *Cart) IsEmpty() bool { return len(c.lines) == 0 }

func (c *Cart) TotalCount() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (c *Cart) Clone() *Cart {
	return &Cart{lines: c.Lines()}
}

func (c *Cart) indexOf(name string) int {
	for i, l := range c.lines {
		if l.Name == name {
			return i
		}
	}
	return -1
}
