package domain

// ProductRef identifies a catalog entry. Cart and wishlist membership is
// keyed by ProductRef, never by row key: one row per (owner, product).
type ProductRef string

// ProductSnapshot is a denormalized copy of catalog fields taken at save
// time. It exists for display only and is never re-validated against the
// catalog here.
type ProductSnapshot struct {
	Name      string
	ImageURL  string
	UnitPrice int64  // cents
	SalePrice *int64 // cents, nil when the product is not on sale
}

// EffectivePrice returns the sale price when present, the unit price otherwise.
func (p ProductSnapshot) EffectivePrice() int64 {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.UnitPrice
}

// LineItem is one cart row. ItemKey is assigned by the remote store on first
// successful insert and is empty while a locally appended row awaits
// reconciliation.
type LineItem struct {
	ItemKey    string
	ProductRef ProductRef
	Quantity   int // always > 0 in a snapshot
	UnitPrice  int64
	SalePrice  *int64
}

// EffectivePrice returns the price a unit of this line actually costs.
func (li LineItem) EffectivePrice() int64 {
	if li.SalePrice != nil {
		return *li.SalePrice
	}
	return li.UnitPrice
}

// Subtotal is the payable amount for this line.
func (li LineItem) Subtotal() int64 {
	return li.EffectivePrice() * int64(li.Quantity)
}
