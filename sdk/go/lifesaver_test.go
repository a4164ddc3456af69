package sdk

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajasatyajit/lifesaver/internal/api"
	"github.com/rajasatyajit/lifesaver/internal/intake"
	"github.com/rajasatyajit/lifesaver/internal/logger"
	"github.com/rajasatyajit/lifesaver/internal/ratelimit"
	"github.com/rajasatyajit/lifesaver/internal/store"
)

func newTestServer(t *testing.T, limiter ratelimit.Limiter) *Client {
	t.Helper()
	logger.Init("error", "text")

	svc := intake.NewService(store.NewInMemoryStore())
	r := chi.NewRouter()
	api.NewHandler(svc, api.Options{Limiter: limiter}).RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return New(srv.URL + "/")
}

func strPtr(s string) *string { return &s }

func TestClient_ReportLifecycle(t *testing.T) {
	c := newTestServer(t, nil)
	ctx := context.Background()

	created, err := c.SubmitReport(ctx, Submission{
		Lat:        47.6062,
		Lng:        -122.3321,
		Categories: []string{"Fire"},
		Answers:    Answers{Fire: true, Trapped: true},
		Contact:    "555-0100",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"fire"}, created.Categories)
	assert.Equal(t, 6, created.Score)
	assert.Equal(t, "medium", created.Urgency)
	assert.Equal(t, "new", created.Status)

	got, err := c.GetReport(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	updated, err := c.UpdateReport(ctx, created.ID, Update{Status: strPtr("ack"), AssignedTo: strPtr("unit-7")})
	require.NoError(t, err)
	assert.Equal(t, "ack", updated.Status)
	require.NotNil(t, updated.AssignedTo)
	assert.Equal(t, "unit-7", *updated.AssignedTo)

	cleared, err := c.UpdateReport(ctx, created.ID, Update{ClearAssignee: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.AssignedTo)

	list, err := c.ListReports(ctx, ListOptions{Categories: []string{"FIRE"}, Statuses: []string{"ack"}})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	none, err := c.ListReports(ctx, ListOptions{Urgencies: []string{"critical"}})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestClient_Errors(t *testing.T) {
	c := newTestServer(t, nil)
	ctx := context.Background()

	_, err := c.GetReport(ctx, "missing")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "not_found", apiErr.Code)

	_, err = c.SubmitReport(ctx, Submission{Lat: 91, Lng: 0})
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "invalid_coordinates", apiErr.Code)
}

func TestClient_Cooldown(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := newTestServer(t, ratelimit.NewMemoryLimiter(2*time.Minute, clock))
	ctx := context.Background()

	_, err := c.SubmitReport(ctx, Submission{Lat: 1, Lng: 1})
	require.NoError(t, err)

	_, err = c.SubmitReport(ctx, Submission{Lat: 1, Lng: 1})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, "rate_limited", apiErr.Code)
	assert.Equal(t, 2*time.Minute, apiErr.RetryAfter)

	clock.Advance(2*time.Minute + time.Second)
	_, err = c.SubmitReport(ctx, Submission{Lat: 1, Lng: 1})
	assert.NoError(t, err)
}

func TestUpdate_MarshalJSON(t *testing.T) {
	b, err := Update{Text: strPtr("hi")}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"hi"}`, string(b))

	b, err = Update{AssignedTo: strPtr("x"), ClearAssignee: true}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"assignedTo":null}`, string(b))
}
