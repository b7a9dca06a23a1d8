// Package events defines the refresh event stream contract. A publisher
// receives one event after every successful profile upsert so downstream
// consumers can react without polling the store.
package events

import (
	"context"
	"time"
)

// Publisher delivers refresh events to an external stream.
type Publisher interface {
	// Publish sends the payload and returns a provider-assigned message ID.
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// RefreshEvent describes one completed profile refresh.
type RefreshEvent struct {
	LinkedInURL string    `json:"linkedin_url"`
	ExternalID  string    `json:"external_id"`
	LastUpdated time.Time `json:"last_updated"`
	Created     bool      `json:"created"`
}

// TopicRefresh is the logical topic name for refresh events.
const TopicRefresh = "profile-refreshes"

// NoOp discards every event. It stands in when no event stream is
// configured.
type NoOp struct{}

// Publish drops the payload.
func (NoOp) Publish(context.Context, string, any) (string, error) {
	return "", nil
}
