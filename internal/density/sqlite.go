package density

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/MeKo-Tech/platesense/internal/shape"
)

// SQLiteStore is a persisted density table so calibration survives restarts.
// database/sql serializes access; the schema keeps one row per normalized
// food name, updated in place.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS food_density (
	name TEXT PRIMARY KEY,
	density DOUBLE NOT NULL,
	density_variance DOUBLE NOT NULL,
	shape_prior TEXT NOT NULL,
	compressibility DOUBLE NOT NULL,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`

// NewSQLiteStore opens (creating if needed) a density table at path. A fresh
// database is populated from the embedded seed table.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open density database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create density schema: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.seedIfEmpty(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) seedIfEmpty() error {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM food_density").Scan(&count); err != nil {
		return fmt.Errorf("failed to count density rows: %w", err)
	}
	if count > 0 {
		return nil
	}

	seed, err := SeedEntries()
	if err != nil {
		return err
	}
	for name, entry := range seed {
		if err := s.Upsert(name, entry); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the entry for the food, or the default profile when absent.
func (s *SQLiteStore) Lookup(foodName string) (Entry, bool) {
	var entry Entry
	var prior string
	err := s.db.QueryRow(
		"SELECT density, density_variance, shape_prior, compressibility FROM food_density WHERE name = ?",
		NormalizeName(foodName),
	).Scan(&entry.Density, &entry.DensityVariance, &prior, &entry.Compressibility)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultEntry(), false
	}
	if err != nil {
		// Treat storage trouble like an unknown food; the caller still gets a
		// usable profile.
		return DefaultEntry(), false
	}
	entry.ShapePrior, err = shape.Parse(prior)
	if err != nil {
		return DefaultEntry(), false
	}
	return entry, true
}

// Upsert replaces or inserts an entry.
func (s *SQLiteStore) Upsert(foodName string, entry Entry) error {
	_, err := s.db.Exec(`
		INSERT INTO food_density (name, density, density_variance, shape_prior, compressibility)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			density = excluded.density,
			density_variance = excluded.density_variance,
			shape_prior = excluded.shape_prior,
			compressibility = excluded.compressibility,
			updated_at = CURRENT_TIMESTAMP`,
		NormalizeName(foodName), entry.Density, entry.DensityVariance,
		string(entry.ShapePrior), entry.Compressibility)
	if err != nil {
		return fmt.Errorf("failed to upsert density entry for %q: %w", foodName, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
