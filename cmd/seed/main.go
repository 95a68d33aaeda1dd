package main

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"authapi/config"
	"authapi/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	email := "demo@example.com"
	password := "password123"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}
	birth := time.Date(1990, time.March, 14, 0, 0, 0, 0, time.UTC)

	var id string
	err = db.QueryRow(`
		INSERT INTO users (full_name, email, password_hash, gender, phone, birth_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (lower(email)) DO UPDATE SET full_name = EXCLUDED.full_name
		RETURNING id
	`, "Demo User", email, hash, "male", "5551234567", birth).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%s email=%s password=%s\n", id, email, password)
}
