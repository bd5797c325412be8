// README: Shared helpers for DB-backed tests; skipped without a test DSN.
package testdb

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect builds a pool against REPARTO_TEST_DSN, applies the schema, and
// truncates all core tables. Tests are skipped when the DSN is not set.
func Connect(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("REPARTO_TEST_DSN")
	if dsn == "" {
		t.Skip("REPARTO_TEST_DSN not set; skipping DB-backed tests")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)

	if err := applyMigration(ctx, db); err != nil {
		t.Fatalf("apply migration: %v", err)
	}
	if _, err := db.Exec(ctx,
		"TRUNCATE TABLE rider_locations, rider_last_locations, vehicles, orders, riders RESTART IDENTITY CASCADE",
	); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	return db
}

// CreateRider inserts a rider row directly and returns its id.
func CreateRider(t *testing.T, db *pgxpool.Pool, userID int64, status string, active bool, rating *float64) int64 {
	t.Helper()
	var id int64
	err := db.QueryRow(context.Background(), `
		INSERT INTO riders (user_id, phone, status, is_active, rating)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		userID, "+34600000000", status, active, rating,
	).Scan(&id)
	if err != nil {
		t.Fatalf("seed rider: %v", err)
	}
	return id
}

// CreatePendingOrder inserts a pending order row and returns its id.
func CreatePendingOrder(t *testing.T, db *pgxpool.Pool) int64 {
	t.Helper()
	var id int64
	err := db.QueryRow(context.Background(), `
		INSERT INTO orders (
			customer_name, customer_lastname, pickup_address, delivery_address,
			pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
			distance_km, estimated_time, estimated_price, status
		) VALUES (
			'Ana', 'García', 'Calle Real 1', 'Paseo Marítimo 4',
			36.8402, -2.4681, 36.8380, -2.4550,
			2.0, '8 min', 6.5, 'pending'
		) RETURNING id`,
	).Scan(&id)
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return id
}

func applyMigration(ctx context.Context, db *pgxpool.Pool) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	content, err := os.ReadFile(filepath.Join(root, "migrations", "0001_init.up.sql"))
	if err != nil {
		return err
	}
	for _, stmt := range splitSQL(stripSQLComments(string(content))) {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func stripSQLComments(input string) string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		b.WriteString(scanner.Text())
		b.WriteString("\n")
	}
	return b.String()
}

func splitSQL(input string) []string {
	parts := strings.Split(input, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		stmt := strings.TrimSpace(p)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
