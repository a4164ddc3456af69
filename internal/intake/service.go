// Package intake runs the report lifecycle: accepting submissions, applying
// operator updates and answering dashboard queries.
package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	apperrors "github.com/rajasatyajit/lifesaver/internal/errors"
	"github.com/rajasatyajit/lifesaver/internal/events"
	"github.com/rajasatyajit/lifesaver/internal/geo"
	"github.com/rajasatyajit/lifesaver/internal/logger"
	"github.com/rajasatyajit/lifesaver/internal/metrics"
	"github.com/rajasatyajit/lifesaver/internal/models"
	"github.com/rajasatyajit/lifesaver/internal/store"
	"github.com/rajasatyajit/lifesaver/internal/triage"
	"github.com/rajasatyajit/lifesaver/pkg/utils"
)

// Service coordinates the store, the triage engine and the change feed
type Service struct {
	store     store.Store
	publisher events.Publisher
	clock     clockwork.Clock
	newID     func() string
}

// Option configures a Service
type Option func(*Service)

// WithPublisher sets the change feed; the default drops events
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithClock sets the time source for createdAt and updatedAt
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithIDGenerator sets the report id generator; the default is UUIDv4
func WithIDGenerator(f func() string) Option {
	return func(s *Service) { s.newID = f }
}

// NewService creates an intake service over st
func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:     st,
		publisher: events.NoOpPublisher{},
		clock:     clockwork.NewRealClock(),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// now is UTC at millisecond precision, the resolution reports are exchanged in
func (s *Service) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Millisecond)
}

// Submit validates a submission, scores it against the current snapshot of
// reports and stores it. Two concurrent submissions may not see each other
// when counting similar reports.
func (s *Service) Submit(ctx context.Context, sub models.Submission) (*models.Report, error) {
	if !geo.ValidCoordinate(sub.Lat, sub.Lng) {
		return nil, apperrors.ValidationError{Field: "lat,lng", Code: apperrors.CodeInvalidCoordinates, Message: "coordinates must be finite and within range"}
	}
	text := strings.TrimSpace(sub.Text)
	if err := checkText(text); err != nil {
		return nil, err
	}

	createdAt := s.now()
	report := models.Report{
		ID:         s.newID(),
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
		Lat:        sub.Lat,
		Lng:        sub.Lng,
		Geohash:    geo.Geohash(sub.Lat, sub.Lng),
		Categories: utils.UniqueLower(sub.Categories),
		Answers:    sub.Answers,
		Text:       text,
		Contact:    optional(sub.Contact),
		PhotoURL:   optional(sub.PhotoURL),
		Status:     models.StatusNew,
	}

	existing, err := s.store.ListReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	similar := triage.CountNearbySimilar(existing, report)
	result := triage.Score(report.Answers, similar, report.HasContact())
	report.Score = result.Score
	report.Urgency = result.Urgency

	if err := s.store.InsertReport(ctx, report); err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}

	metrics.RecordReportSubmitted(string(report.Urgency))
	metrics.RecordSimilarCount(similar)
	logger.WithContext(ctx).Info("Report submitted",
		"report_id", report.ID,
		"geohash", report.Geohash,
		"score", report.Score,
		"urgency", report.Urgency,
		"similar", similar,
	)

	s.publish(ctx, events.TypeReportCreated, report)
	return &report, nil
}

// Patch applies an operator update. An update that changes nothing returns
// the stored report without touching updatedAt.
func (s *Service) Patch(ctx context.Context, id string, upd models.ReportUpdate) (*models.Report, error) {
	current, err := s.store.GetReport(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	if current == nil {
		return nil, fmt.Errorf("report %s: %w", id, apperrors.ErrNotFound)
	}

	if upd.Status != nil && !upd.Status.Valid() {
		return nil, apperrors.ValidationError{Field: "status", Code: apperrors.CodeInvalidStatus, Message: "status must be one of new, ack, enroute, resolved"}
	}
	if upd.Text != nil {
		if err := checkText(*upd.Text); err != nil {
			return nil, err
		}
	}
	if upd.AssignedTo != nil && *upd.AssignedTo == "" {
		upd.AssignedTo = nil
		upd.ClearAssignedTo = true
	}

	if upd.IsEmpty() {
		return current, nil
	}
	upd.UpdatedAt = s.now()

	updated, err := s.store.UpdateReport(ctx, id, upd)
	if err != nil {
		return nil, fmt.Errorf("update report: %w", err)
	}
	if updated == nil {
		return nil, fmt.Errorf("report %s: %w", id, apperrors.ErrNotFound)
	}

	if upd.Status != nil {
		metrics.RecordStatusChange(string(*upd.Status))
	}
	logger.WithContext(ctx).Info("Report updated", "report_id", id, "status", updated.Status)

	s.publish(ctx, events.TypeReportUpdated, *updated)
	return updated, nil
}

// Get returns one report or ErrNotFound
func (s *Service) Get(ctx context.Context, id string) (*models.Report, error) {
	r, err := s.store.GetReport(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	if r == nil {
		return nil, fmt.Errorf("report %s: %w", id, apperrors.ErrNotFound)
	}
	return r, nil
}

// Query returns the reports matching f, newest first
func (s *Service) Query(ctx context.Context, f models.ReportFilter) ([]models.Report, error) {
	all, err := s.store.ListReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return triage.Filter(all, f), nil
}

// Health reports whether the backing store is reachable
func (s *Service) Health(ctx context.Context) error {
	return s.store.Health(ctx)
}

func (s *Service) publish(ctx context.Context, eventType string, r models.Report) {
	err := s.publisher.Publish(ctx, events.Event{Type: eventType, Report: r, OccurredAt: r.UpdatedAt})
	if err == nil {
		return
	}
	attrs := []any{"error", err, "report_id", r.ID, "event_type", eventType}
	var pubErr apperrors.PublishError
	if errors.As(err, &pubErr) {
		attrs = append(attrs, "topic", pubErr.Topic)
	}
	logger.WithContext(ctx).Warn("Failed to publish report event", attrs...)
}

func checkText(text string) error {
	if utf8.RuneCountInString(text) > models.MaxTextLength {
		return apperrors.ValidationError{
			Field:   "text",
			Code:    apperrors.CodeTextTooLong,
			Message: fmt.Sprintf("text must be at most %d characters", models.MaxTextLength),
		}
	}
	return nil
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}
