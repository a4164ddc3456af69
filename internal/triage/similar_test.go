package triage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rajasatyajit/lifesaver/internal/geo"
	"github.com/rajasatyajit/lifesaver/internal/models"
)

var (
	seattleLat = 47.6062
	seattleLng = -122.3321
	baseTime   = time.Date(2024, 4, 26, 15, 0, 0, 0, time.UTC)
)

func reportAt(id string, northMeters float64, created time.Time, categories ...string) models.Report {
	lat, lng := geo.Offset(seattleLat, seattleLng, northMeters, 0)
	return models.Report{ID: id, Lat: lat, Lng: lng, CreatedAt: created, Categories: categories}
}

func TestCountNearbySimilar(t *testing.T) {
	candidate := reportAt("candidate", 0, baseTime, "fire")

	tests := []struct {
		name     string
		existing models.Report
		want     int
	}{
		{name: "150m apart, shared category, 10 minutes earlier", existing: reportAt("a", 150, baseTime.Add(-10*time.Minute), "fire"), want: 1},
		{name: "1000m apart", existing: reportAt("a", 1000, baseTime.Add(-10*time.Minute), "fire"), want: 0},
		{name: "no shared category", existing: reportAt("a", 150, baseTime.Add(-10*time.Minute), "flood"), want: 0},
		{name: "40 minutes earlier", existing: reportAt("a", 150, baseTime.Add(-40*time.Minute), "fire"), want: 0},
		{name: "exactly 30 minutes earlier", existing: reportAt("a", 150, baseTime.Add(-30*time.Minute), "fire"), want: 1},
		{name: "one of several categories shared", existing: reportAt("a", 10, baseTime, "medical", "fire"), want: 1},
		{name: "created after the candidate", existing: reportAt("a", 50, baseTime.Add(2*time.Hour), "fire"), want: 1},
		{name: "existing report without timestamp", existing: reportAt("a", 50, time.Time{}, "fire"), want: 0},
		{name: "just outside the radius", existing: reportAt("a", 201, baseTime, "fire"), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CountNearbySimilar([]models.Report{tt.existing}, candidate)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCountNearbySimilar_ShortCircuits(t *testing.T) {
	existing := []models.Report{reportAt("a", 0, baseTime, "fire")}

	noCategories := reportAt("candidate", 0, baseTime)
	assert.Equal(t, 0, CountNearbySimilar(existing, noCategories))

	noTimestamp := reportAt("candidate", 0, time.Time{}, "fire")
	assert.Equal(t, 0, CountNearbySimilar(existing, noTimestamp))

	assert.Equal(t, 0, CountNearbySimilar(nil, reportAt("candidate", 0, baseTime, "fire")))
}

func TestCountNearbySimilar_CountsAll(t *testing.T) {
	existing := []models.Report{
		reportAt("a", 20, baseTime.Add(-5*time.Minute), "fire"),
		reportAt("b", 120, baseTime.Add(-25*time.Minute), "fire", "trapped"),
		reportAt("c", 180, baseTime.Add(-1*time.Minute), "trapped"),
		reportAt("d", 500, baseTime.Add(-1*time.Minute), "fire"),
	}
	candidate := reportAt("candidate", 0, baseTime, "fire", "trapped")

	assert.Equal(t, 3, CountNearbySimilar(existing, candidate))
}
