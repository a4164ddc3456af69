// Package events publishes report changes to downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/rajasatyajit/lifesaver/internal/models"
)

// Event types
const (
	TypeReportCreated = "report.created"
	TypeReportUpdated = "report.updated"
)

// Event is one entry of the report change feed
type Event struct {
	Type       string        `json:"type"`
	Report     models.Report `json:"report"`
	OccurredAt time.Time     `json:"occurredAt"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// NoOpPublisher drops every event
type NoOpPublisher struct{}

func (NoOpPublisher) Publish(context.Context, Event) error { return nil }
func (NoOpPublisher) Close() error                         { return nil }
