// Package render draws the cart drawer: the item list and the summary bar.
// It owns no state and re-reads everything from the snapshot it is given.
package render

import (
	"html/template"
	"io"

	"github.com/jcmexdev/necs-cart/internal/cart"
	"github.com/jcmexdev/necs-cart/internal/cart/domain"
)

const drawerTemplate = `{{define "drawer"}}<div id="cartItems">
{{- if not .Items}}
  <div class="cart-empty">Your cart is empty.</div>
{{- else}}{{range .Items}}
  <div class="cart-item">
    <div>
      <div class="cart-item-title">{{.Name}}</div>
      <div class="cart-item-meta">{{.Price}} each</div>
    </div>
    <div class="cart-item-actions">
      <button class="cart-qty-btn" data-action="dec" data-index="{{.Index}}">-</button>
      <span class="cart-qty">{{.Qty}}</span>
      <button class="cart-qty-btn" data-action="inc" data-index="{{.Index}}">+</button>
    </div>
  </div>
{{- end}}{{end}}
</div>
<div class="cart-summary">
  <span id="cartTotal">{{.Total}}</span>
  <span id="cartCount">{{.Count}}</span>
</div>
{{end}}`

var drawer = template.Must(template.New("cart").Parse(drawerTemplate))

// Item is one row of the drawer with its amounts already formatted.
type Item struct {
	Index    int
	Name     string
	Price    string
	Qty      int
	Subtotal string
}

// Drawer is the view model behind the drawer markup.
type Drawer struct {
	Items []Item
	Total string
	Count int
}

// NewDrawer formats a snapshot for display.
func NewDrawer(snap cart.Snapshot) Drawer {
	items := make([]Item, len(snap.Lines))
	for i, l := range snap.Lines {
		items[i] = Item{
			Index:    i,
			Name:     l.Name,
			Price:    domain.FormatMoney(l.UnitPrice),
			Qty:      l.Quantity,
			Subtotal: domain.FormatMoney(l.Subtotal()),
		}
	}
	return Drawer{
		Items: items,
		Total: domain.FormatMoney(snap.TotalPrice),
		Count: snap.TotalCount,
	}
}

// WriteDrawer renders the drawer fragment for snap into w.
func WriteDrawer(w io.Writer, snap cart.Snapshot) error {
	return drawer.ExecuteTemplate(w, "drawer", NewDrawer(snap))
}
