package domain

import (
	"math"
	"time"
)

// OrderStatus is the two-letter processing status of an order
type OrderStatus string

const (
	OrderStatusAccepted    OrderStatus = "AC"
	OrderStatusAssembling  OrderStatus = "BL"
	OrderStatusDelivering  OrderStatus = "SO"
	OrderStatusFinished    OrderStatus = "FN"
	OrderStatusUnprocessed OrderStatus = "NO"
)

// OpenOrderStatuses are the non-terminal statuses that still need a restaurant
var OpenOrderStatuses = []OrderStatus{
	OrderStatusAccepted,
	OrderStatusAssembling,
	OrderStatusDelivering,
	OrderStatusUnprocessed,
}

var orderStatusLabels = map[OrderStatus]string{
	OrderStatusAccepted:    "Accepted",
	OrderStatusAssembling:  "Assembling",
	OrderStatusDelivering:  "Out for delivery",
	OrderStatusFinished:    "Finished",
	OrderStatusUnprocessed: "Unprocessed",
}

// Label returns a human readable status name
func (s OrderStatus) Label() string {
	if label, ok := orderStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// IsOpen reports whether the order still awaits fulfillment
func (s OrderStatus) IsOpen() bool {
	for _, open := range OpenOrderStatuses {
		if s == open {
			return true
		}
	}
	return false
}

// PaymentMethod is how the customer pays
type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "CASH"
	PaymentMethodCard PaymentMethod = "CARD"
)

// Label returns a human readable payment method
func (p PaymentMethod) Label() string {
	switch p {
	case PaymentMethodCash:
		return "Cash"
	case PaymentMethodCard:
		return "Card"
	default:
		return string(p)
	}
}

// Bounds on the quantity of a single order line
const (
	MinItemQuantity = 1
	MaxItemQuantity = 10
)

// OrderItem is one ordered product line. Price is the line total at order time.
type OrderItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Order is a customer order awaiting a restaurant
type Order struct {
	ID            int64         `json:"id" yaml:"id"`
	Address       string        `json:"address" yaml:"address"`
	FirstName     string        `json:"firstName" yaml:"first_name"`
	LastName      string        `json:"lastName" yaml:"last_name"`
	Phone         string        `json:"phone" yaml:"phone"`
	Comment       string        `json:"comment,omitempty" yaml:"comment"`
	Status        OrderStatus   `json:"status" yaml:"status"`
	PaymentMethod PaymentMethod `json:"paymentMethod" yaml:"payment_method"`
	RegisteredAt  time.Time     `json:"registeredAt" yaml:"registered_at"`
	Items         []OrderItem   `json:"items" yaml:"-"`
}

// Total is the order price, the sum of its line totals
func (o Order) Total() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.Price
	}
	return math.Round(total*100) / 100
}

// RankedCandidate is a restaurant able to fulfill an order and its distance to the delivery address
type RankedCandidate struct {
	Restaurant Restaurant `json:"restaurant"`
	DistanceKm float64    `json:"distanceKm"`
}

// OrderPlan is an order with its candidate restaurants, nearest first
type OrderPlan struct {
	Order        Order             `json:"order"`
	StatusLabel  string            `json:"statusLabel"`
	PaymentLabel string            `json:"paymentLabel"`
	Total        float64           `json:"total"`
	Candidates   []RankedCandidate `json:"candidates"`
}
