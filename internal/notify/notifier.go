package notify

import (
	"context"
)

// OrderCreated is the event published after an order commits.
type OrderCreated struct {
	OrderNumber   string `json:"orderNumber"`
	CustomerName  string `json:"customerName"`
	CustomerPhone string `json:"customerPhone"`
	StoreCode     string `json:"storeCode"`
	Total         int    `json:"total"`
	LineCount     int    `json:"lineCount"`
	CreatedAt     string `json:"createdAt"`
}

// Notifier delivers order-created events. It is invoked strictly after
// commit; a delivery failure must never reverse the order.
type Notifier interface {
	// NotifyOrderCreated publishes the event.
	NotifyOrderCreated(ctx context.Context, event OrderCreated) error

	// Close releases resources held by the notifier.
	Close() error
}

// NopNotifier discards all events. Used when no broker is configured.
type NopNotifier struct{}

func (NopNotifier) NotifyOrderCreated(ctx context.Context, event OrderCreated) error { return nil }

func (NopNotifier) Close() error { return nil }
