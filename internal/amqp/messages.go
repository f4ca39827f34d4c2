package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

var ErrEmptyOrderID = errors.New("order sync message without order id")

// OrderSyncMessage asks the worker to push one order to the sales sheet.
// It carries only the id; the worker reloads the order from the store.
type OrderSyncMessage struct {
	OrderID   string    `json:"order_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewOrderSyncMessage(orderID string) *OrderSyncMessage {
	return &OrderSyncMessage{
		OrderID:   orderID,
		Timestamp: time.Now().UTC(),
	}
}

func (m *OrderSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// OrderSyncMessageFromJSON decodes and validates a message body.
func OrderSyncMessageFromJSON(data []byte) (*OrderSyncMessage, error) {
	var msg OrderSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.OrderID == "" {
		return nil, ErrEmptyOrderID
	}
	return &msg, nil
}
