package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	if len(os.Args) < 2 {
		fmt.Println("Usage: go run main.go [up|drop|seed]")
		os.Exit(1)
	}
	command := os.Args[1]

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	switch command {
	case "up":
		if err := createTables(ctx, conn); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		fmt.Println("✅ Schema created successfully")

	case "drop":
		if err := dropTables(ctx, conn); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		fmt.Println("✅ Schema dropped successfully")

	case "seed":
		if err := seedData(ctx, conn); err != nil {
			log.Fatalf("Failed to seed data: %v", err)
		}
		fmt.Println("✅ Data seeded successfully")

	default:
		log.Fatalf("Unknown command: %s", command)
	}
}

// createTables builds the single documents table both store backends
// share. The partial unique index on (collection, natural_key) is the
// enforcement point for at-most-one-vote and one-profile-per-user.
func createTables(ctx context.Context, conn *pgx.Conn) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			collection  TEXT        NOT NULL,
			id          UUID        NOT NULL,
			natural_key TEXT,
			fields      JSONB       NOT NULL DEFAULT '{}'::jsonb,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (collection, id)
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS documents_natural_key_uniq
			ON documents (collection, natural_key)
			WHERE natural_key IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS documents_fields_gin
			ON documents USING gin (fields jsonb_path_ops)`,
	}

	for _, stmt := range statements {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("statement failed: %w", err)
		}
	}
	return nil
}

func dropTables(ctx context.Context, conn *pgx.Conn) error {
	_, err := conn.Exec(ctx, `DROP TABLE IF EXISTS documents`)
	return err
}

// seedData inserts a couple of facilities and a sample election so a
// fresh environment is immediately usable
func seedData(ctx context.Context, conn *pgx.Conn) error {
	type seed struct {
		collection string
		fields     string
	}

	now := time.Now().UTC()
	seeds := []seed{
		{"facilities", `{"name":"Main Auditorium","capacity":400,"location":"Block A","maintenance":false}`},
		{"facilities", `{"name":"Seminar Room 2","capacity":40,"location":"Block C","maintenance":false}`},
		{"elections", fmt.Sprintf(
			`{"title":"Student Council %d","description":"Annual student council election","start_date":%q,"end_date":%q,"positions":["President","Vice President","Secretary"],"cancelled":false}`,
			now.Year(), now.Add(24*time.Hour).Format(time.RFC3339), now.Add(7*24*time.Hour).Format(time.RFC3339))},
	}

	for _, s := range seeds {
		_, err := conn.Exec(ctx,
			`INSERT INTO documents (collection, id, fields) VALUES ($1, $2, $3::jsonb)`,
			s.collection, uuid.NewString(), s.fields)
		if err != nil {
			return fmt.Errorf("seed insert failed: %w", err)
		}
	}
	return nil
}
