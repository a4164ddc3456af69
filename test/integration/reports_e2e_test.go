//go:build integration

package integration

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	chi "github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/rajasatyajit/lifesaver/config"
	"github.com/rajasatyajit/lifesaver/internal/api"
	"github.com/rajasatyajit/lifesaver/internal/database"
	"github.com/rajasatyajit/lifesaver/internal/intake"
	"github.com/rajasatyajit/lifesaver/internal/logger"
	"github.com/rajasatyajit/lifesaver/internal/ratelimit"
	"github.com/rajasatyajit/lifesaver/internal/store"
	"github.com/rajasatyajit/lifesaver/internal/uploads"
	sdk "github.com/rajasatyajit/lifesaver/sdk/go"
)

func startPostgres(t *testing.T, ctx context.Context) string {
	t.Helper()
	req := testcontainers.ContainerRequest{
		Image: "postgres:15-alpine",
		Env: map[string]string{
			"POSTGRES_DB":       "lifesaver",
			"POSTGRES_USER":     "lifesaver",
			"POSTGRES_PASSWORD": "password",
		},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(context.Background()) })

	host, err := pg.Host(ctx)
	require.NoError(t, err)
	port, err := pg.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://lifesaver:password@%s:%s/lifesaver?sslmode=disable", host, port.Port())
}

// TestReports_EndToEnd runs the HTTP API over Postgres with a Redis-backed
// submission cooldown.
func TestReports_EndToEnd(t *testing.T) {
	if !containersAvailable() {
		t.Skip("no container runtime available")
	}
	logger.Init("error", "text")

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	db, err := database.New(ctx, config.DatabaseConfig{URL: startPostgres(t, ctx), MaxConns: 5, MinConns: 1})
	require.NoError(t, err)
	defer db.Close(context.Background())
	require.NoError(t, db.EnsureSchema(ctx))

	mr := miniredis.RunT(t)
	limiter, err := ratelimit.NewRedisLimiter(ctx, "redis://"+mr.Addr(), 2*time.Minute)
	require.NoError(t, err)
	defer limiter.Close()

	photos, err := uploads.NewStore(t.TempDir(), 1<<20)
	require.NoError(t, err)

	svc := intake.NewService(store.New(db))
	r := chi.NewRouter()
	api.NewHandler(svc, api.Options{Uploads: photos, Limiter: limiter, Version: "it"}).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := sdk.New(srv.URL)

	first, err := c.SubmitReport(ctx, sdk.Submission{
		Lat: 47.6062, Lng: -122.3321,
		Categories: []string{"Fire"},
		Answers:    sdk.Answers{Breathing: true},
		Contact:    "a@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, first.Score)

	// Same client again inside the window
	_, err = c.SubmitReport(ctx, sdk.Submission{Lat: 47.6062, Lng: -122.3321})
	var apiErr *sdk.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Greater(t, apiErr.RetryAfter, time.Duration(0))

	mr.FastForward(2*time.Minute + time.Second)
	second, err := c.SubmitReport(ctx, sdk.Submission{
		Lat: 47.6065, Lng: -122.3321,
		Categories: []string{"fire"},
		Answers:    sdk.Answers{Breathing: true},
		Contact:    "b@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, second.Score, "one similar report does not earn the cluster bonus")

	mr.FastForward(2*time.Minute + time.Second)
	third, err := c.SubmitReport(ctx, sdk.Submission{
		Lat: 47.6063, Lng: -122.3322,
		Categories: []string{"fire", "medical"},
		Answers:    sdk.Answers{Breathing: true},
		Contact:    "c@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, 6, third.Score)
	assert.Equal(t, "medium", third.Urgency)

	resolved := "resolved"
	_, err = c.UpdateReport(ctx, first.ID, sdk.Update{Status: &resolved})
	require.NoError(t, err)

	open, err := c.ListReports(ctx, sdk.ListOptions{Statuses: []string{"new"}})
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, third.ID, open[0].ID)
	assert.Equal(t, second.ID, open[1].ID)

	got, err := c.GetReport(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "resolved", got.Status)
	assert.Equal(t, first.Score, got.Score)
}
