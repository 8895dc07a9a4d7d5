package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Wrecage/KamicoContactRelay/internal/crypto"
	"github.com/Wrecage/KamicoContactRelay/internal/mailer"
	"github.com/Wrecage/KamicoContactRelay/internal/storage"
)

// Provisions a new tenant: generates a random API key, encrypts the SMTP
// app-password with the master key, and inserts the row. The API key is
// printed exactly once.
func main() {
	var (
		name       = flag.String("name", "", "tenant display name (required)")
		sender     = flag.String("sender", "", "sender email / SMTP user (required)")
		password   = flag.String("password", "", "SMTP app password, stored encrypted (required)")
		recipient  = flag.String("recipient", "", "recipient email for leads (required)")
		origins    = flag.String("origins", "", "comma-separated allowed origins, e.g. https://site.com (required)")
		smtpServer = flag.String("smtp-server", "smtp.gmail.com", "SMTP server host")
		smtpPort   = flag.Int("smtp-port", 587, "SMTP server port")
		keyLength  = flag.Int("key-length", crypto.DefaultAPIKeyLength, "generated API key length")
	)
	flag.Parse()

	if *name == "" || *sender == "" || *password == "" || *recipient == "" || *origins == "" {
		flag.Usage()
		os.Exit(2)
	}

	var allowedOrigins []string
	for _, o := range strings.Split(*origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowedOrigins = append(allowedOrigins, o)
		}
	}
	if len(allowedOrigins) == 0 {
		log.Fatal("at least one allowed origin is required")
	}

	if err := mailer.ValidateSMTPConfig(*smtpServer, *smtpPort); err != nil {
		log.Fatalf("SMTP settings rejected: %v", err)
	}

	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	masterKey := os.Getenv("MAIL_SECRET_KEY")
	if masterKey == "" {
		log.Fatal("MAIL_SECRET_KEY is not set")
	}
	cipher, err := crypto.NewSecretCipher(masterKey)
	if err != nil {
		log.Fatalf("Invalid MAIL_SECRET_KEY: %v", err)
	}

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

	apiKey, err := crypto.GenerateAPIKey(*keyLength)
	if err != nil {
		log.Fatalf("Failed to generate API key: %v", err)
	}

	encryptedPass, err := cipher.Encrypt(*password)
	if err != nil {
		log.Fatalf("Failed to encrypt SMTP password: %v", err)
	}

	const q = `
		INSERT INTO tenants (name, api_key, sender_email, sender_password,
		                     recipient_email, allowed_origins, smtp_server, smtp_port)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	var id string
	err = pool.QueryRow(ctx, q,
		*name, apiKey, *sender, encryptedPass,
		*recipient, allowedOrigins, *smtpServer, *smtpPort,
	).Scan(&id)
	if err != nil {
		log.Fatalf("Failed to register tenant: %v", err)
	}

	log.Printf("Tenant registered: %s (id=%s)", *name, id)
	log.Printf("API KEY: %s", apiKey)
	log.Println("Give this key to the client. It will not be shown again.")
}
