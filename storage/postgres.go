package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"crous-x/models"
	"crous-x/utils"
)

// PostgresStore reads and seeds listings in PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	logger *utils.Logger
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresStore.
func NewPostgresStore(ctx context.Context, dsn string, logger *utils.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{MaxAttempts: 10, BaseDelay: 500 * time.Millisecond, Logger: logger}
	if err := retry.Do(ctx, "postgres-ping", func(ctx context.Context) error {
		return db.PingContext(ctx)
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	ps := NewPostgresStoreFromDB(db, logger)
	if err := ps.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

// NewPostgresStoreFromDB wraps an existing handle without migrating.
func NewPostgresStoreFromDB(db *sql.DB, logger *utils.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

func (ps *PostgresStore) migrate(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS listings (
			listing_id     BIGSERIAL PRIMARY KEY,
			title          TEXT          NOT NULL,
			property_type  VARCHAR(32)   NOT NULL DEFAULT 'Other',
			rent_amount    NUMERIC(10,2) NOT NULL DEFAULT 0,
			square_footage NUMERIC(8,2)  NOT NULL DEFAULT 0,
			rating         NUMERIC(3,2),
			latitude       DOUBLE PRECISION,
			longitude      DOUBLE PRECISION,
			image          TEXT,
			address        TEXT,
			created_at     TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_listings_rent ON listings(rent_amount);
		CREATE INDEX IF NOT EXISTS idx_listings_type ON listings(property_type);
	`)
	return err
}

// FetchAll retrieves every stored listing.
func (ps *PostgresStore) FetchAll(ctx context.Context) ([]*models.RawListing, error) {
	rows, err := ps.db.QueryContext(ctx, `
		SELECT listing_id, title, property_type, rent_amount, square_footage,
		       rating, latitude, longitude, image, address
		FROM listings
		ORDER BY listing_id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var listings []*models.RawListing
	for rows.Next() {
		var (
			id                  int64
			title, propertyType string
			rent, size          float64
			rating, lat, lng    sql.NullFloat64
			image, address      sql.NullString
		)
		if err := rows.Scan(&id, &title, &propertyType, &rent, &size,
			&rating, &lat, &lng, &image, &address); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		listings = append(listings, &models.RawListing{
			ID:            &id,
			Title:         &title,
			PropertyType:  &propertyType,
			RentAmount:    &rent,
			SquareFootage: &size,
			Rating:        nullFloat(rating),
			Latitude:      nullFloat(lat),
			Longitude:     nullFloat(lng),
			Image:         nullString(image),
			Address:       nullString(address),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate rows: %w", err)
	}

	ps.logger.Debug("[postgres] Fetched %d listings", len(listings))
	return listings, nil
}

// Write replaces the table content with listings, inserting in batches. The
// delete and every batch share one transaction, so a failed seed leaves the
// previous content in place.
func (ps *PostgresStore) Write(ctx context.Context, listings []*models.RawListing) (err error) {
	keep := make([]*models.RawListing, 0, len(listings))
	for i, l := range listings {
		if l == nil || l.ID == nil || l.Title == nil {
			ps.logger.Warn("[postgres] Skipping record %d without listing_id or title", i)
			continue
		}
		keep = append(keep, l)
	}
	listings = keep
	if len(listings) == 0 {
		return nil
	}

	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				ps.logger.Error("[postgres] Rollback failed: %v", rbErr)
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM listings"); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}

	const batchSize = 50
	for i := 0; i < len(listings); i += batchSize {
		end := i + batchSize
		if end > len(listings) {
			end = len(listings)
		}
		if err = insertBatch(ctx, tx, listings[i:end]); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	ps.logger.Info("[postgres] Stored %d listings", len(listings))
	return nil
}

const insertColumns = 10

func insertBatch(ctx context.Context, tx *sql.Tx, batch []*models.RawListing) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*insertColumns)

	for idx, l := range batch {
		base := idx * insertColumns
		placeholders := make([]string, insertColumns)
		for c := range placeholders {
			placeholders[c] = fmt.Sprintf("$%d", base+c+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		// Explicit NULLs bypass the column defaults.
		propertyType := string(models.TypeOther)
		if l.PropertyType != nil {
			propertyType = *l.PropertyType
		}
		var rent, size float64
		if l.RentAmount != nil {
			rent = *l.RentAmount
		}
		if l.SquareFootage != nil {
			size = *l.SquareFootage
		}

		valueArgs = append(valueArgs,
			*l.ID, *l.Title, propertyType, rent, size,
			l.Rating, l.Latitude, l.Longitude, l.Image, l.Address)
	}

	query := fmt.Sprintf(`
		INSERT INTO listings (listing_id, title, property_type, rent_amount, square_footage,
		                      rating, latitude, longitude, image, address)
		VALUES %s
		ON CONFLICT (listing_id) DO NOTHING
	`, strings.Join(valueStrings, ","))

	if _, err := tx.ExecContext(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: insert batch: %w", err)
	}
	return nil
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
