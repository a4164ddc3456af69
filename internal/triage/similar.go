package triage

import (
	"time"

	"github.com/rajasatyajit/lifesaver/internal/geo"
	"github.com/rajasatyajit/lifesaver/internal/models"
	"github.com/rajasatyajit/lifesaver/pkg/utils"
)

const (
	// SimilarRadiusMeters is the maximum distance between similar reports.
	SimilarRadiusMeters = 200
	// SimilarWindow is how far back a report may be and still count as similar.
	SimilarWindow = 30 * time.Minute
)

// CountNearbySimilar counts existing reports that share at least one category
// with the candidate, lie within SimilarRadiusMeters of it and are not older
// than SimilarWindow relative to the candidate's creation time.
//
// The time check is one-sided: reports created after the candidate are never
// excluded by it. A candidate without categories or without a timestamp has
// no similar reports; existing reports without a timestamp are skipped.
func CountNearbySimilar(existing []models.Report, candidate models.Report) int {
	if len(candidate.Categories) == 0 || candidate.CreatedAt.IsZero() {
		return 0
	}

	count := 0
	for _, r := range existing {
		if isSimilar(r, candidate) {
			count++
		}
	}
	return count
}

func isSimilar(r, candidate models.Report) bool {
	if r.CreatedAt.IsZero() {
		return false
	}
	if candidate.CreatedAt.Sub(r.CreatedAt) > SimilarWindow {
		return false
	}
	if !utils.ContainsAny(r.Categories, candidate.Categories) {
		return false
	}
	return geo.DistanceMeters(r.Lat, r.Lng, candidate.Lat, candidate.Lng) <= SimilarRadiusMeters
}
