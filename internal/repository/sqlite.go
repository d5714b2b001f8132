// Package repository persists the registration journal and report history in
// SQLite.
package repository

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/xiaot623/gogo/ecosystem/internal/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteStore stores agents and reports.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens dsn and applies pending migrations.
func NewSQLiteStore(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// In-memory SQLite is per connection.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// UpsertAgent writes the latest known state of an agent.
func (s *SQLiteStore) UpsertAgent(ctx context.Context, agent domain.Agent) error {
	caps, err := json.Marshal(agent.Capabilities)
	if err != nil {
		return fmt.Errorf("marshal capabilities: %w", err)
	}
	var lastSeen sql.NullTime
	if agent.LastSeen != nil {
		lastSeen = sql.NullTime{Time: agent.LastSeen.UTC(), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO agents (name, category, revenue_potential, capabilities, status, registered, last_seen, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			category = excluded.category,
			revenue_potential = excluded.revenue_potential,
			capabilities = excluded.capabilities,
			status = excluded.status,
			registered = excluded.registered,
			last_seen = COALESCE(excluded.last_seen, agents.last_seen),
			updated_at = excluded.updated_at`,
		agent.Name, agent.Category, string(agent.RevenueTier), string(caps), string(agent.Status),
		agent.Registered, lastSeen, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert agent %s: %w", agent.Name, err)
	}
	return nil
}

// GetAgent returns the stored agent or domain.ErrUnknownAgent.
func (s *SQLiteStore) GetAgent(ctx context.Context, name string) (*domain.Agent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT name, category, revenue_potential, capabilities, status, registered, last_seen FROM agents WHERE name = ?`, name)
	agent, err := scanAgent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownAgent, name)
	}
	if err != nil {
		return nil, err
	}
	return agent, nil
}

// ListAgents returns every stored agent ordered by name.
func (s *SQLiteStore) ListAgents(ctx context.Context) ([]domain.Agent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, category, revenue_potential, capabilities, status, registered, last_seen FROM agents ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []domain.Agent
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, *agent)
	}
	return agents, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAgent(sc scanner) (*domain.Agent, error) {
	var (
		agent    domain.Agent
		tier     string
		status   string
		caps     sql.NullString
		lastSeen sql.NullTime
	)
	if err := sc.Scan(&agent.Name, &agent.Category, &tier, &caps, &status, &agent.Registered, &lastSeen); err != nil {
		return nil, err
	}
	agent.RevenueTier = domain.RevenueTier(tier)
	agent.Status = domain.AgentStatus(status)
	if caps.Valid && caps.String != "" {
		if err := json.Unmarshal([]byte(caps.String), &agent.Capabilities); err != nil {
			return nil, fmt.Errorf("decode capabilities of %s: %w", agent.Name, err)
		}
	}
	if lastSeen.Valid {
		t := lastSeen.Time
		agent.LastSeen = &t
	}
	return &agent, nil
}

// SaveReport appends a report to the history.
func (s *SQLiteStore) SaveReport(ctx context.Context, r domain.RevenueReport) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reports (ecosystem_id, created_at, total_revenue, hourly_rate, target_progress, payload)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.EcosystemID, r.Timestamp.UTC(), r.Revenue.Total, r.Revenue.HourlyRate, r.Performance.TargetProgress, string(payload))
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// ListReports returns up to limit reports, newest first.
func (s *SQLiteStore) ListReports(ctx context.Context, limit int) ([]domain.RevenueReport, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM reports ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := []domain.RevenueReport{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var r domain.RevenueReport
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}
