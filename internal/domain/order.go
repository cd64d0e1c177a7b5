package domain

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "Pending"
)

type PaymentMethod string

const (
	PaymentOnline PaymentMethod = "online"
	PaymentCOD    PaymentMethod = "cod"
)

type Address struct {
	FullName string `json:"fullName"`
	Street   string `json:"street"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
}

// Complete reports whether every delivery field is filled in.
func (a Address) Complete() bool {
	return a.FullName != "" && a.Street != "" && a.City != "" && a.State != "" && a.Zip != ""
}

type OrderItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name,omitempty"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// Order is the payload the backend stores when a cart is checked out.
type Order struct {
	UserID     string      `json:"userId,omitempty"`
	Items      []OrderItem `json:"items"`
	TotalPrice float64     `json:"totalPrice"`
	Address    Address     `json:"address"`
	Phone      string      `json:"phone"`
	Status     OrderStatus `json:"status"`
}

type PaymentLinkRequest struct {
	Amount  float64 `json:"amount"`
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   string  `json:"phone"`
	OrderID string  `json:"order_id"`
}
