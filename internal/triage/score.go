package triage

import "github.com/rajasatyajit/lifesaver/internal/models"

// Points awarded per signal.
const (
	pointsBreathing  = 4
	pointsBleeding   = 4
	pointsTrapped    = 3
	pointsWater      = 3
	pointsFire       = 3
	pointsVulnerable = 2
	pointsAlone      = 1
	pointsNoContact  = 1
	pointsCluster    = 2

	// clusterThreshold is the similar-report count that earns pointsCluster.
	clusterThreshold = 2
)

type threshold struct {
	min     int
	urgency models.Urgency
}

// urgencyThresholds is evaluated top-down; the first match wins.
var urgencyThresholds = []threshold{
	{min: 12, urgency: models.UrgencyCritical},
	{min: 8, urgency: models.UrgencyHigh},
	{min: 5, urgency: models.UrgencyMedium},
}

// Result is the frozen scoring outcome stored on a report.
type Result struct {
	Score   int            `json:"score"`
	Urgency models.Urgency `json:"urgency"`
}

// Score sums the triage points for a report and maps the total to an urgency tier.
func Score(a models.Answers, similarCount int, hasContact bool) Result {
	score := 0
	if a.Breathing {
		score += pointsBreathing
	}
	if a.Bleeding {
		score += pointsBleeding
	}
	if a.Trapped {
		score += pointsTrapped
	}
	if a.Water {
		score += pointsWater
	}
	if a.Fire {
		score += pointsFire
	}
	if a.Vulnerable {
		score += pointsVulnerable
	}
	if a.Alone {
		score += pointsAlone
	}
	if !hasContact {
		score += pointsNoContact
	}
	if similarCount >= clusterThreshold {
		score += pointsCluster
	}

	return Result{Score: score, Urgency: UrgencyFor(score)}
}

// UrgencyFor maps a score to its tier.
func UrgencyFor(score int) models.Urgency {
	for _, t := range urgencyThresholds {
		if score >= t.min {
			return t.urgency
		}
	}
	return models.UrgencyLow
}
