package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"deal_underwriting/pkg/core/assumption"
	"deal_underwriting/pkg/core/valuation"
)

// ErrScenarioNotFound is returned by Get when no scenario has the given ID.
var ErrScenarioNotFound = errors.New("scenario not found")

// Schema for the Postgres backend:
//
//	CREATE TABLE IF NOT EXISTS underwriting_scenarios (
//	  id            UUID PRIMARY KEY,
//	  property_id   TEXT NOT NULL,
//	  name          TEXT NOT NULL,
//	  scenario_json JSONB NOT NULL,
//	  created_at    TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX IF NOT EXISTS underwriting_scenarios_property_idx
//	  ON underwriting_scenarios (property_id, created_at DESC);

// Scenario is one saved what-if run: the inputs the user chose and the
// result they saw. It is a copy; the property record is never touched.
type Scenario struct {
	ID          uuid.UUID              `json:"id"`
	PropertyID  string                 `json:"property_id"`
	Name        string                 `json:"name"`
	Baseline    assumption.Baseline    `json:"baseline"`
	Assumptions assumption.Assumptions `json:"assumptions"`
	Summary     *valuation.Summary     `json:"summary,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

// ScenarioRepository is the storage surface used by the API layer.
type ScenarioRepository interface {
	Save(ctx context.Context, s *Scenario) error
	Get(ctx context.Context, id uuid.UUID) (*Scenario, error)
	ListByProperty(ctx context.Context, propertyID string) ([]Scenario, error)
}

// ScenarioStore persists scenarios.
// Supports Hybrid Vault: DB (Primary) + File System (Fallback/Local)
type ScenarioStore struct {
	pool    *pgxpool.Pool
	fileDir string
}

var _ ScenarioRepository = (*ScenarioStore)(nil)

// NewScenarioStore creates a store. With a nil pool it keeps one JSON file
// per scenario in dir (default .cache/scenarios).
func NewScenarioStore(pool *pgxpool.Pool, dir string) (*ScenarioStore, error) {
	if pool == nil {
		if dir == "" {
			dir = filepath.Join(".cache", "scenarios")
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create scenario dir: %w", err)
		}
	}
	return &ScenarioStore{pool: pool, fileDir: dir}, nil
}

// Save assigns an ID and timestamp when missing and writes the scenario.
func (s *ScenarioStore) Save(ctx context.Context, sc *Scenario) error {
	if sc.ID == uuid.Nil {
		sc.ID = uuid.New()
	}
	if sc.CreatedAt.IsZero() {
		sc.CreatedAt = time.Now().UTC()
	}

	if s.pool != nil {
		data, err := json.Marshal(sc)
		if err != nil {
			return fmt.Errorf("failed to marshal scenario: %w", err)
		}
		query := `
			INSERT INTO underwriting_scenarios (id, property_id, name, scenario_json, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id)
			DO UPDATE SET
				name = EXCLUDED.name,
				scenario_json = EXCLUDED.scenario_json
		`
		if _, err := s.pool.Exec(ctx, query, sc.ID, sc.PropertyID, sc.Name, data, sc.CreatedAt); err != nil {
			return fmt.Errorf("failed to save scenario: %w", err)
		}
		return nil
	}

	data, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal scenario: %w", err)
	}
	if err := os.WriteFile(s.path(sc.ID), data, 0644); err != nil {
		return fmt.Errorf("failed to save scenario file: %w", err)
	}
	return nil
}

// Get loads a scenario by ID.
func (s *ScenarioStore) Get(ctx context.Context, id uuid.UUID) (*Scenario, error) {
	if s.pool != nil {
		var data []byte
		err := s.pool.QueryRow(ctx,
			`SELECT scenario_json FROM underwriting_scenarios WHERE id = $1`, id,
		).Scan(&data)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrScenarioNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load scenario: %w", err)
		}
		return decodeScenario(data)
	}

	data, err := os.ReadFile(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrScenarioNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return decodeScenario(data)
}

// ListByProperty returns a property's scenarios, newest first.
func (s *ScenarioStore) ListByProperty(ctx context.Context, propertyID string) ([]Scenario, error) {
	if s.pool != nil {
		rows, err := s.pool.Query(ctx, `
			SELECT scenario_json
			FROM underwriting_scenarios
			WHERE property_id = $1
			ORDER BY created_at DESC
		`, propertyID)
		if err != nil {
			return nil, fmt.Errorf("failed to list scenarios: %w", err)
		}
		defer rows.Close()

		var out []Scenario
		for rows.Next() {
			var data []byte
			if err := rows.Scan(&data); err != nil {
				return nil, fmt.Errorf("failed to scan scenario: %w", err)
			}
			sc, err := decodeScenario(data)
			if err != nil {
				return nil, err
			}
			out = append(out, *sc)
		}
		return out, rows.Err()
	}

	// File fallback: scan the directory. Fine for a local workstation.
	entries, err := os.ReadDir(s.fileDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario dir: %w", err)
	}
	var out []Scenario
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.fileDir, e.Name()))
		if err != nil {
			continue
		}
		sc, err := decodeScenario(data)
		if err != nil {
			continue
		}
		if strings.EqualFold(sc.PropertyID, propertyID) {
			out = append(out, *sc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *ScenarioStore) path(id uuid.UUID) string {
	return filepath.Join(s.fileDir, id.String()+".json")
}

func decodeScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scenario: %w", err)
	}
	return &sc, nil
}
