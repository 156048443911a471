package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"address_lookup_backend/platform/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores each record as a row with a jsonb field map.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a postgres-backed record store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// FetchFields returns the requested fields present on the record.
func (r *Postgres) FetchFields(ctx context.Context, recordID string, fields []string) (map[string]string, error) {
	query := `
		SELECT fields
		FROM address_records
		WHERE id = $1`

	var raw []byte
	if err := r.pool.QueryRow(ctx, query, recordID).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(recordNotFoundMessage)
		}
		return nil, fmt.Errorf("fetch record fields: %w", err)
	}

	var stored map[string]any
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode record fields: %w", err)
	}

	return pickFields(stored, fields), nil
}

// UpdateFields merges values into the record's field map.
func (r *Postgres) UpdateFields(ctx context.Context, recordID string, fields map[string]string) error {
	patch, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode record fields: %w", err)
	}

	query := `
		UPDATE address_records
		SET fields = fields || $2::jsonb, updated_at = now()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, recordID, patch)
	if err != nil {
		return fmt.Errorf("update record fields: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(recordNotFoundMessage)
	}
	return nil
}

// pickFields selects the requested keys, rendering JSON scalars as strings.
func pickFields(stored map[string]any, fields []string) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		v, ok := stored[f]
		if !ok {
			continue
		}
		out[f] = fieldString(v)
	}
	return out
}

func fieldString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}
