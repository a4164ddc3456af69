// Command seed stages sample reports around a centre point and writes them
// to the configured database, or prints them as JSON when none is set.
package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"gopkg.in/yaml.v3"

	"github.com/rajasatyajit/lifesaver/config"
	"github.com/rajasatyajit/lifesaver/internal/database"
	"github.com/rajasatyajit/lifesaver/internal/geo"
	"github.com/rajasatyajit/lifesaver/internal/logger"
	"github.com/rajasatyajit/lifesaver/internal/models"
	"github.com/rajasatyajit/lifesaver/internal/store"
	"github.com/rajasatyajit/lifesaver/internal/triage"
	"github.com/rajasatyajit/lifesaver/pkg/utils"
)

//go:embed scenarios.yaml
var defaultScenarios []byte

const (
	minJitterMeters = 300
	maxJitterMeters = 1000
	maxAge          = 45 * time.Minute
)

// Scenario is one sample report template
type Scenario struct {
	Categories []string        `yaml:"categories"`
	Answers    map[string]bool `yaml:"answers"`
	Text       string          `yaml:"text"`
	Contact    string          `yaml:"contact"`
}

type scenarioFile struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

func parseScenarios(data []byte) ([]Scenario, error) {
	var f scenarioFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse scenarios: %w", err)
	}
	if len(f.Scenarios) == 0 {
		return nil, fmt.Errorf("parse scenarios: no scenarios defined")
	}
	return f.Scenarios, nil
}

type seeder struct {
	centerLat, centerLng float64
	minJitter, maxJitter float64 // meters
	maxAge               time.Duration
	clock                clockwork.Clock
	rnd                  *rand.Rand
	newID                func() string
}

// stage turns scenarios into scored reports. Each draft is compared with the
// drafts staged before it.
func (s *seeder) stage(scenarios []Scenario) []models.Report {
	now := s.clock.Now().UTC().Truncate(time.Millisecond)
	drafts := make([]models.Report, 0, len(scenarios))

	for _, sc := range scenarios {
		lat, lng := s.jitter()
		createdAt := now.Add(-time.Duration(s.rnd.IntN(int(s.maxAge/time.Minute))) * time.Minute)

		var answers models.Answers
		for field, v := range sc.Answers {
			answers.Set(strings.ToLower(field), v)
		}

		r := models.Report{
			ID:         s.newID(),
			CreatedAt:  createdAt,
			UpdatedAt:  createdAt,
			Lat:        lat,
			Lng:        lng,
			Geohash:    geo.Geohash(lat, lng),
			Categories: utils.UniqueLower(sc.Categories),
			Answers:    answers,
			Text:       strings.TrimSpace(sc.Text),
			Status:     models.StatusNew,
		}
		if c := strings.TrimSpace(sc.Contact); c != "" {
			r.Contact = &c
		}

		result := triage.Score(r.Answers, triage.CountNearbySimilar(drafts, r), r.HasContact())
		r.Score = result.Score
		r.Urgency = result.Urgency
		drafts = append(drafts, r)
	}
	return drafts
}

// jitter moves the centre between minJitter and maxJitter meters along each
// axis, in a random direction
func (s *seeder) jitter() (float64, float64) {
	d := s.minJitter + s.rnd.Float64()*(s.maxJitter-s.minJitter)
	north, east := d, d
	if s.rnd.IntN(2) == 0 {
		north = -north
	}
	if s.rnd.IntN(2) == 0 {
		east = -east
	}
	return geo.Offset(s.centerLat, s.centerLng, north, east)
}

func insertAll(ctx context.Context, st store.Store, reports []models.Report) error {
	for _, r := range reports {
		if err := st.InsertReport(ctx, r); err != nil {
			return fmt.Errorf("insert report %s: %w", r.ID, err)
		}
	}
	return nil
}

func printJSON(w io.Writer, reports []models.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{"reports": reports})
}

func main() {
	scenariosPath := flag.String("scenarios", "", "YAML scenario file (default: built-in scenarios)")
	lat := flag.Float64("lat", 47.6062, "centre latitude")
	lng := flag.Float64("lng", -122.3321, "centre longitude")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	// stdout carries the JSON output
	logger.InitWithWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	if !geo.ValidCoordinate(*lat, *lng) {
		logger.Fatal("Invalid centre coordinates", "lat", *lat, "lng", *lng)
	}

	data := defaultScenarios
	if *scenariosPath != "" {
		if data, err = os.ReadFile(*scenariosPath); err != nil {
			logger.Fatal("Failed to read scenarios", "path", *scenariosPath, "error", err)
		}
	}
	scenarios, err := parseScenarios(data)
	if err != nil {
		logger.Fatal("Failed to load scenarios", "error", err)
	}

	s := &seeder{
		centerLat: *lat,
		centerLng: *lng,
		minJitter: minJitterMeters,
		maxJitter: maxJitterMeters,
		maxAge:    maxAge,
		clock:     clockwork.NewRealClock(),
		rnd:       rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
		newID:     uuid.NewString,
	}
	reports := s.stage(scenarios)

	ctx := context.Background()
	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database", "error", err)
	}
	defer db.Close(ctx)

	if !db.IsConfigured() {
		if err := printJSON(os.Stdout, reports); err != nil {
			logger.Fatal("Failed to write reports", "error", err)
		}
		return
	}

	if err := db.EnsureSchema(ctx); err != nil {
		logger.Fatal("Failed to apply schema", "error", err)
	}
	if err := insertAll(ctx, store.New(db), reports); err != nil {
		logger.Fatal("Failed to seed reports", "error", err)
	}
	logger.Info("Seeded reports", "count", len(reports))
}
