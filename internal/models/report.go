package models

import (
	"strings"
	"time"

	"github.com/rajasatyajit/lifesaver/pkg/utils"
)

// MaxTextLength bounds the free-form text of a report, in characters.
const MaxTextLength = 280

// Urgency is the discrete tier derived from a report's score
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// Urgencies lists every valid tier, lowest first
var Urgencies = []Urgency{UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical}

// Valid reports whether u is one of the four tiers
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}

// Status is the operator workflow state of a report. Any status may move to
// any other status.
type Status string

const (
	StatusNew      Status = "new"
	StatusAck      Status = "ack"
	StatusEnroute  Status = "enroute"
	StatusResolved Status = "resolved"
)

// Statuses lists every valid status
var Statuses = []Status{StatusNew, StatusAck, StatusEnroute, StatusResolved}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusAck, StatusEnroute, StatusResolved:
		return true
	}
	return false
}

// Answers holds the seven yes/no triage flags. Missing answers are false.
type Answers struct {
	Breathing  bool `json:"breathing"`
	Bleeding   bool `json:"bleeding"`
	Trapped    bool `json:"trapped"`
	Water      bool `json:"water"`
	Fire       bool `json:"fire"`
	Vulnerable bool `json:"vulnerable"`
	Alone      bool `json:"alone"`
}

// AnswerFields names the triage flags in their canonical order
var AnswerFields = []string{"breathing", "bleeding", "trapped", "water", "fire", "vulnerable", "alone"}

// Set assigns the flag with the given name; unknown names are ignored.
func (a *Answers) Set(field string, value bool) {
	switch field {
	case "breathing":
		a.Breathing = value
	case "bleeding":
		a.Bleeding = value
	case "trapped":
		a.Trapped = value
	case "water":
		a.Water = value
	case "fire":
		a.Fire = value
	case "vulnerable":
		a.Vulnerable = value
	case "alone":
		a.Alone = value
	}
}

// Report is a single crowd-sourced emergency report. Score and Urgency are
// computed once at creation and never recomputed.
type Report struct {
	ID          string    `json:"id" db:"id"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
	Lat         float64   `json:"lat" db:"lat"`
	Lng         float64   `json:"lng" db:"lng"`
	Geohash     string    `json:"geohash" db:"geohash"`
	Categories  []string  `json:"categories" db:"categories"`
	Answers     Answers   `json:"answers" db:"answers"`
	Text        string    `json:"text" db:"text"`
	Contact     *string   `json:"contact" db:"contact"`
	PhotoURL    *string   `json:"photoUrl" db:"photo_url"`
	Score       int       `json:"score" db:"score"`
	Urgency     Urgency   `json:"urgency" db:"urgency"`
	Status      Status    `json:"status" db:"status"`
	AssignedTo  *string   `json:"assignedTo" db:"assigned_to"`
	DuplicateOf *string   `json:"duplicateOf" db:"duplicate_of"` // reserved, never set
}

// HasContact reports whether the reporter left a way to reach them
func (r Report) HasContact() bool {
	return r.Contact != nil && *r.Contact != ""
}

// Clone returns a deep copy so callers cannot mutate stored state
func (r Report) Clone() Report {
	c := r
	if r.Categories != nil {
		c.Categories = append([]string(nil), r.Categories...)
	}
	c.Contact = cloneString(r.Contact)
	c.PhotoURL = cloneString(r.PhotoURL)
	c.AssignedTo = cloneString(r.AssignedTo)
	c.DuplicateOf = cloneString(r.DuplicateOf)
	return c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// Submission is a validated candidate report as delivered by intake
type Submission struct {
	Lat        float64
	Lng        float64
	Categories []string
	Answers    Answers
	Text       string
	Contact    string
	PhotoURL   string
}

// ReportUpdate is a partial update applied by the patch path. Nil fields are
// left unchanged.
type ReportUpdate struct {
	Status          *Status
	AssignedTo      *string
	ClearAssignedTo bool
	Text            *string
	UpdatedAt       time.Time
}

// IsEmpty reports whether the update changes nothing
func (u ReportUpdate) IsEmpty() bool {
	return u.Status == nil && u.AssignedTo == nil && !u.ClearAssignedTo && u.Text == nil
}

// Apply mutates r in place
func (u ReportUpdate) Apply(r *Report) {
	if u.Status != nil {
		r.Status = *u.Status
	}
	if u.ClearAssignedTo {
		r.AssignedTo = nil
	} else if u.AssignedTo != nil {
		r.AssignedTo = cloneString(u.AssignedTo)
	}
	if u.Text != nil {
		r.Text = *u.Text
	}
	if !u.UpdatedAt.IsZero() {
		r.UpdatedAt = u.UpdatedAt
	}
}

// ReportFilter selects reports for the dashboard. Empty fields impose no
// constraint; the three fields are ANDed.
type ReportFilter struct {
	Categories []string  `json:"categories"`
	Urgencies  []Urgency `json:"urgencies"`
	Statuses   []Status  `json:"statuses"`
}

// Normalize lowercases every token and silently drops unknown urgency and
// status values.
func (f ReportFilter) Normalize() ReportFilter {
	out := ReportFilter{Categories: utils.UniqueLower(f.Categories)}
	for _, u := range f.Urgencies {
		if u = Urgency(strings.ToLower(string(u))); u.Valid() {
			out.Urgencies = append(out.Urgencies, u)
		}
	}
	for _, s := range f.Statuses {
		if s = Status(strings.ToLower(string(s))); s.Valid() {
			out.Statuses = append(out.Statuses, s)
		}
	}
	return out
}

// Matches checks a report against an already normalized filter. A report
// matches the category constraint when any of its categories is listed.
func (f ReportFilter) Matches(r Report) bool {
	if len(f.Categories) > 0 {
		matched := false
		for _, c := range r.Categories {
			if utils.Contains(f.Categories, strings.ToLower(c)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if len(f.Urgencies) > 0 && !containsUrgency(f.Urgencies, r.Urgency) {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, r.Status) {
		return false
	}
	return true
}

func containsUrgency(list []Urgency, u Urgency) bool {
	for _, v := range list {
		if v == u {
			return true
		}
	}
	return false
}

func containsStatus(list []Status, s Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
