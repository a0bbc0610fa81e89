package store

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// PGAdapter persists collection snapshots in a Postgres key/value table.
// One row per collection, upserted on every save.
type PGAdapter struct {
	db *sqlx.DB
}

func NewPGAdapter(db *sqlx.DB) *PGAdapter {
	return &PGAdapter{db: db}
}

func (p *PGAdapter) Load(key string) ([]byte, error) {
	var value []byte
	err := p.db.Get(&value, "SELECT value FROM dispatch_store WHERE key = $1", key)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return value, nil
}

func (p *PGAdapter) Save(key string, value []byte) error {
	query := `
		INSERT INTO dispatch_store (key, value, updated_at)
		VALUES ($1, $2, EXTRACT(EPOCH FROM NOW())::BIGINT)
		ON CONFLICT (key)
		DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXTRACT(EPOCH FROM NOW())::BIGINT
	`
	if _, err := p.db.Exec(query, key, value); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
