// Package orders exposes the read-only order list written by the order-intake bot.
package orders

import (
	"context"
	"fmt"
	"sort"

	"github.com/angelmondragon/bazary-backend/pkg/enums"
	"github.com/angelmondragon/bazary-backend/pkg/models"
)

type ordersState interface {
	Orders() []models.Order
}

// Service lists orders; there is no creation path in this console.
type Service interface {
	List(ctx context.Context, status enums.OrderStatus) []models.Order
}

type service struct {
	state ordersState
}

func NewService(state ordersState) (Service, error) {
	if state == nil {
		return nil, fmt.Errorf("orders state required")
	}
	return &service{state: state}, nil
}

// List returns orders newest first, optionally narrowed to one status.
func (s *service) List(_ context.Context, status enums.OrderStatus) []models.Order {
	all := s.state.Orders()
	out := make([]models.Order, 0, len(all))
	for _, o := range all {
		if status != "" && o.Status != status {
			continue
		}
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt > out[j].CreatedAt
	})
	return out
}
