// Package postgres provides the Postgres-backed profile store.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/profile-vault/internal/profile"
	"github.com/JakeFAU/profile-vault/internal/store"
)

// Schema is the DDL for the profiles table. last_updated is kept as a
// naive-UTC timestamp; it is stamped inside every upsert statement so the
// write and the stamp are atomic.
const Schema = `
CREATE TABLE IF NOT EXISTS profiles (
	profile_id     BIGSERIAL PRIMARY KEY,
	linkedin_url   TEXT UNIQUE NOT NULL,
	name           TEXT,
	first_name     TEXT,
	last_name      TEXT,
	location       TEXT,
	headline       TEXT,
	company        TEXT,
	past_company1  TEXT,
	past_company2  TEXT,
	school1        TEXT,
	school2        TEXT,
	skills         JSONB,
	experiences    JSONB,
	certifications JSONB,
	last_updated   TIMESTAMP NOT NULL DEFAULT (now() AT TIME ZONE 'utc')
);
`

const selectColumns = `linkedin_url, name, first_name, last_name, location, headline,
	company, past_company1, past_company2, school1, school2,
	skills, experiences, certifications, last_updated`

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// pool abstracts the subset of *pgxpool.Pool the store needs; pgxmock
// implements it for tests.
type pool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
	Close()
}

// Store writes profile rows into Postgres.
type Store struct {
	pool pool
}

// New connects a Store using the provided config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: p}, nil
}

// NewWithPool constructs a Store from an existing pool (primarily for
// testing with pgxmock).
func NewWithPool(p pool) (*Store, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{pool: p}, nil
}

// EnsureSchema creates the profiles table when it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Ping verifies the connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// FindByURL looks a profile up by its source URL.
func (s *Store) FindByURL(ctx context.Context, linkedinURL string) (*profile.Record, error) {
	query := `SELECT ` + selectColumns + ` FROM profiles WHERE linkedin_url = $1`
	rec, err := scanRecord(s.pool.QueryRow(ctx, query, linkedinURL))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("select profile: %w", err)
	}
	return rec, nil
}

// Upsert inserts or fully overwrites the row for linkedinURL. Every
// mutable column is written, NULLs included, and last_updated is stamped
// in the same statement so a half-written row can never be observed.
func (s *Store) Upsert(ctx context.Context, linkedinURL string, fields profile.Fields) (*profile.Record, error) {
	skills, err := marshalStructured(fields.Skills)
	if err != nil {
		return nil, fmt.Errorf("marshal skills: %w", err)
	}
	experiences, err := marshalStructured(fields.Experiences)
	if err != nil {
		return nil, fmt.Errorf("marshal experiences: %w", err)
	}
	certifications, err := marshalStructured(fields.Certifications)
	if err != nil {
		return nil, fmt.Errorf("marshal certifications: %w", err)
	}

	query := `
INSERT INTO profiles (
	linkedin_url, name, first_name, last_name, location, headline,
	company, past_company1, past_company2, school1, school2,
	skills, experiences, certifications, last_updated
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,(now() AT TIME ZONE 'utc')
)
ON CONFLICT (linkedin_url) DO UPDATE SET
	name = EXCLUDED.name,
	first_name = EXCLUDED.first_name,
	last_name = EXCLUDED.last_name,
	location = EXCLUDED.location,
	headline = EXCLUDED.headline,
	company = EXCLUDED.company,
	past_company1 = EXCLUDED.past_company1,
	past_company2 = EXCLUDED.past_company2,
	school1 = EXCLUDED.school1,
	school2 = EXCLUDED.school2,
	skills = EXCLUDED.skills,
	experiences = EXCLUDED.experiences,
	certifications = EXCLUDED.certifications,
	last_updated = (now() AT TIME ZONE 'utc')
RETURNING ` + selectColumns

	args := []any{
		linkedinURL,
		fields.Name,
		fields.FirstName,
		fields.LastName,
		fields.Location,
		fields.Headline,
		fields.Company,
		fields.PastCompany1,
		fields.PastCompany2,
		fields.School1,
		fields.School2,
		skills,
		experiences,
		certifications,
	}
	rec, err := scanRecord(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	return rec, nil
}

func scanRecord(row pgx.Row) (*profile.Record, error) {
	var (
		rec            profile.Record
		skills         []byte
		experiences    []byte
		certifications []byte
	)
	err := row.Scan(
		&rec.LinkedInURL,
		&rec.Name,
		&rec.FirstName,
		&rec.LastName,
		&rec.Location,
		&rec.Headline,
		&rec.Company,
		&rec.PastCompany1,
		&rec.PastCompany2,
		&rec.School1,
		&rec.School2,
		&skills,
		&experiences,
		&certifications,
		&rec.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	if rec.Skills, err = unmarshalStructured(skills); err != nil {
		return nil, fmt.Errorf("unmarshal skills: %w", err)
	}
	if rec.Experiences, err = unmarshalStructured(experiences); err != nil {
		return nil, fmt.Errorf("unmarshal experiences: %w", err)
	}
	if rec.Certifications, err = unmarshalStructured(certifications); err != nil {
		return nil, fmt.Errorf("unmarshal certifications: %w", err)
	}
	return &rec, nil
}

// marshalStructured renders a structured field for the JSONB column. A
// still-unparsed string is stored as a JSON string rather than rejected.
func marshalStructured(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func unmarshalStructured(b []byte) (any, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
