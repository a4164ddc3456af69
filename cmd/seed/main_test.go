package main

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand/v2"
	"strconv"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajasatyajit/lifesaver/internal/geo"
	"github.com/rajasatyajit/lifesaver/internal/models"
	"github.com/rajasatyajit/lifesaver/internal/store"
)

var seedNow = time.Date(2024, 4, 26, 15, 0, 0, 0, time.UTC)

func newTestSeeder() *seeder {
	n := 0
	return &seeder{
		centerLat: 47.6062,
		centerLng: -122.3321,
		minJitter: minJitterMeters,
		maxJitter: maxJitterMeters,
		maxAge:    maxAge,
		clock:     clockwork.NewFakeClockAt(seedNow),
		rnd:       rand.New(rand.NewPCG(1, 2)),
		newID: func() string {
			n++
			return "seed-" + strconv.Itoa(n)
		},
	}
}

func TestParseScenarios_Default(t *testing.T) {
	scenarios, err := parseScenarios(defaultScenarios)
	require.NoError(t, err)
	require.Len(t, scenarios, 5)

	assert.Equal(t, []string{"Flooded", "Trapped"}, scenarios[0].Categories)
	assert.True(t, scenarios[0].Answers["trapped"])
	assert.Equal(t, "seeder@example.com", scenarios[0].Contact)
	assert.Empty(t, scenarios[1].Contact)
}

func TestParseScenarios_Errors(t *testing.T) {
	_, err := parseScenarios([]byte("scenarios: []"))
	assert.Error(t, err)

	_, err = parseScenarios([]byte("scenarios: [unterminated"))
	assert.Error(t, err)
}

func TestSeeder_Stage(t *testing.T) {
	scenarios, err := parseScenarios(defaultScenarios)
	require.NoError(t, err)

	s := newTestSeeder()
	reports := s.stage(scenarios)
	require.Len(t, reports, len(scenarios))

	for i, r := range reports {
		d := geo.DistanceMeters(s.centerLat, s.centerLng, r.Lat, r.Lng)
		// both axes move 300-1000 m, so the diagonal is sqrt(2) times that
		assert.GreaterOrEqual(t, d, 300.0, "report %d", i)
		assert.LessOrEqual(t, d, 1000*1.42, "report %d", i)

		assert.False(t, r.CreatedAt.After(seedNow))
		assert.True(t, seedNow.Sub(r.CreatedAt) < maxAge)
		assert.Equal(t, r.CreatedAt, r.UpdatedAt)
		assert.Equal(t, geo.Geohash(r.Lat, r.Lng), r.Geohash)
		assert.Equal(t, models.StatusNew, r.Status)
		assert.Nil(t, r.DuplicateOf)
	}

	// categories are normalized
	assert.Equal(t, []string{"flooded", "trapped"}, reports[0].Categories)
	assert.Equal(t, []string{"supply need"}, reports[3].Categories)

	// trapped 3 + water 3 + vulnerable 2, contact given
	assert.Equal(t, 8, reports[0].Score)
	assert.Equal(t, models.UrgencyHigh, reports[0].Urgency)
	// breathing 4 + alone 1 + no contact 1
	assert.Equal(t, 6, reports[1].Score)
	assert.Equal(t, models.UrgencyMedium, reports[1].Urgency)
	assert.Nil(t, reports[1].Contact)
}

func TestSeeder_StageCountsEarlierDrafts(t *testing.T) {
	s := newTestSeeder()
	// every draft at the centre, all created now
	s.minJitter, s.maxJitter = 0, 0
	s.maxAge = time.Minute

	fire := Scenario{Categories: []string{"Fire"}, Answers: map[string]bool{"fire": true}, Contact: "x"}
	flood := Scenario{Categories: []string{"Flood"}, Answers: map[string]bool{"water": true}, Contact: "x"}

	reports := s.stage([]Scenario{fire, fire, flood, fire})
	require.Len(t, reports, 4)

	scores := []int{reports[0].Score, reports[1].Score, reports[2].Score, reports[3].Score}
	// the fourth report sees two earlier fire drafts and earns the cluster bonus
	assert.Equal(t, []int{3, 3, 3, 5}, scores)
	assert.Equal(t, models.UrgencyMedium, reports[3].Urgency)
}

func TestInsertAllAndPrint(t *testing.T) {
	scenarios, err := parseScenarios(defaultScenarios)
	require.NoError(t, err)
	reports := newTestSeeder().stage(scenarios)

	st := store.NewInMemoryStore()
	require.NoError(t, insertAll(context.Background(), st, reports))

	stored, err := st.ListReports(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, len(reports))

	// Inserting the same ids again conflicts
	assert.Error(t, insertAll(context.Background(), st, reports))

	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, reports))
	var out struct {
		Reports []models.Report `json:"reports"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out.Reports, len(reports))
	assert.Equal(t, reports[0].ID, out.Reports[0].ID)
}
