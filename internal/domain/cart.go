package domain

// CartLine is one product and its quantity in a cart. ProductID is unique
// within a cart and Quantity is never below 1.
type CartLine struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Price     Price  `json:"price"`
	Image     string `json:"image,omitempty"`
	Quantity  int    `json:"quantity"`
}

func (l CartLine) UnitPrice() float64 {
	return l.Price.Amount()
}

func (l CartLine) Subtotal() float64 {
	return l.UnitPrice() * float64(l.Quantity)
}
