package objects

import (
	"encoding/json"
	"time"
)

type PushSubscriptionInfo struct {
	ID        int64           `json:"id"`
	Endpoint  string          `json:"endpoint"`
	Keys      json.RawMessage `json:"keys"`
	CreatedAt time.Time       `json:"createdAt"`
}

// PushMessage is the payload handed to the delivery provider.
type PushMessage struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
}

// PushReport summarises one send across all subscriptions.
type PushReport struct {
	Delivered int `json:"delivered"`
	Failed    int `json:"failed"`
}
