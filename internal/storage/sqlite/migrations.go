package sqlite

import "database/sql"

// schema holds one row per client origin with its latest serialized snapshot.
// These run on startup to ensure tables exist.
const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
    origin TEXT PRIMARY KEY,
    payload BLOB NOT NULL,
    updated_at INTEGER NOT NULL
);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
