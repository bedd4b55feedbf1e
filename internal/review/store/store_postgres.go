package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"claimaudit/internal/review/models"
	"claimaudit/pkg/platform/sentinel"
)

const schema = `
CREATE TABLE IF NOT EXISTS assessments (
	id               UUID PRIMARY KEY,
	file_number      TEXT NOT NULL,
	final_score      INTEGER NOT NULL,
	fraud_score      INTEGER NOT NULL,
	fraud_risk       TEXT NOT NULL,
	missing_evidence TEXT[] NOT NULL DEFAULT '{}',
	payload          JSONB NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS assessments_file_number_idx ON assessments (file_number, created_at DESC);
`

// PostgresStore persists assessments in PostgreSQL. The full assessment is
// kept as JSON; the scores are duplicated into columns for reporting.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed assessment store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the assessments table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure assessment schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, a *models.Assessment) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal assessment: %w", err)
	}
	query := `
		INSERT INTO assessments (id, file_number, final_score, fraud_score, fraud_risk, missing_evidence, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`
	_, err = s.db.ExecContext(ctx, query,
		a.ID,
		a.FileNumber,
		a.FinalScore,
		a.FraudScore,
		string(a.FraudRisk),
		pq.Array(a.MissingEvidence),
		payload,
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save assessment: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Assessment, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM assessments WHERE id = $1`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find assessment by id: %w", err)
	}
	return decode(payload)
}

func (s *PostgresStore) ListByFileNumber(ctx context.Context, fileNumber string) ([]*models.Assessment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM assessments WHERE file_number = $1 ORDER BY created_at DESC`, fileNumber)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer rows.Close()

	out := []*models.Assessment{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		a, err := decode(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	return out, nil
}

func decode(payload []byte) (*models.Assessment, error) {
	var a models.Assessment
	if err := json.Unmarshal(payload, &a); err != nil {
		return nil, fmt.Errorf("unmarshal assessment: %w", err)
	}
	return &a, nil
}
