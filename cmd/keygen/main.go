package main

import (
	"fmt"
	"os"

	"github.com/Wrecage/KamicoContactRelay/internal/crypto"
)

// Generates the AES-256 master key tenant SMTP passwords are encrypted
// with. Run once during initial setup (or rotation) and store the value as
// MAIL_SECRET_KEY.
func main() {
	key, err := crypto.GenerateKey()
	if err != nil {
		fmt.Printf("Failed to generate key: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("--- COPY BELOW TO .env.local ---")
	fmt.Printf("MAIL_SECRET_KEY=%s\n", key)
	fmt.Println("--------------------------------")
}
