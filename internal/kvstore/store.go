// Package kvstore persists whole JSON documents under fixed keys.
package kvstore

import (
	"context"
	"errors"
)

// Fixed document keys shared with the browser console.
const (
	KeyProducts = "bazary_products"
	KeyShop     = "bazary_shop"
	KeyUser     = "bazary_user"
	KeyLanguage = "bazary_lang"
	KeyOrders   = "bazary_orders"
)

// ErrNotFound is returned when no document is stored under the key.
var ErrNotFound = errors.New("kvstore: document not found")

// Store reads and replaces whole documents.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
