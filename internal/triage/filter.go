package triage

import (
	"sort"

	"github.com/rajasatyajit/lifesaver/internal/models"
)

// Filter returns the reports matching f, most recently created first. Reports
// with equal creation times keep their input order. The input slice is not
// modified.
func Filter(all []models.Report, f models.ReportFilter) []models.Report {
	f = f.Normalize()

	result := make([]models.Report, 0, len(all))
	for _, r := range all {
		if f.Matches(r) {
			result = append(result, r)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result
}
