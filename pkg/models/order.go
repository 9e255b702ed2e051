package models

import (
	"github.com/angelmondragon/bazary-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// OrderItem is a line snapshot taken when the order was placed.
type OrderItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
}

// Order is written by the order-intake bot and only displayed here.
type Order struct {
	ID            string            `json:"id"`
	CustomerName  string            `json:"customerName"`
	CustomerPhone string            `json:"customerPhone"`
	Items         []OrderItem       `json:"items"`
	Total         decimal.Decimal   `json:"total"`
	Status        enums.OrderStatus `json:"status"`
	CreatedAt     int64             `json:"createdAt"`
}

// CloneOrders deep-copies an order slice.
func CloneOrders(in []Order) []Order {
	out := make([]Order, len(in))
	for i, o := range in {
		out[i] = o
		out[i].Items = append([]OrderItem(nil), o.Items...)
	}
	return out
}
