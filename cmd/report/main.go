package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/Wrecage/KamicoContactRelay/internal/storage"
)

// Prints a per-tenant count of delivered notifications since the first of
// the current month.
func main() {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx := context.Background()
	pool, err := storage.NewPostgres(ctx, dbURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	const q = `
		SELECT t.name, COUNT(l.id)
		FROM tenants t
		LEFT JOIN email_logs l
		  ON l.tenant_id = t.id AND l.sent_at >= $1
		GROUP BY t.id, t.name
		ORDER BY t.name`

	rows, err := pool.Query(ctx, q, monthStart)
	if err != nil {
		log.Fatalf("Report query failed: %v", err)
	}
	defer rows.Close()

	fmt.Printf("--- Usage Report (%s) ---\n", now.Format("January 2006"))
	for rows.Next() {
		var (
			name  string
			count int64
		)
		if err := rows.Scan(&name, &count); err != nil {
			log.Fatalf("Scan failed: %v", err)
		}

		status := "idle"
		if count > 0 {
			status = "active"
		}
		fmt.Printf("%-8s | %-25s | emails sent: %d\n", status, name, count)
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("Report failed: %v", err)
	}
}
