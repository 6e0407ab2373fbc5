package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/internal/config"
	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/internal/database"
	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/models"
	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/services"
)

// seedadmin creates the first admin account. Subsequent admins are created
// through the authenticated /auth/register endpoint.
func main() {
	var (
		username = flag.String("username", "admin", "admin username")
		email    = flag.String("email", "", "admin email")
		password = flag.String("password", "", "admin password (min 8 characters)")
		fullName = flag.String("full-name", "", "optional full name")
	)
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("both -email and -password are required")
	}
	if len(*password) < 8 {
		log.Fatal("password must be at least 8 characters")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to Postgres:", err)
	}
	defer db.Close()

	authService := services.NewAuthService(db, cfg.JWTSecret, 24*time.Hour, cfg.BcryptCost)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	existing, err := authService.GetByUsername(ctx, *username)
	if err != nil {
		log.Fatal("Failed to check existing admin:", err)
	}
	if existing != nil {
		log.Fatalf("admin %q already exists", *username)
	}

	req := models.RegisterAdminRequest{
		Username: *username,
		Email:    *email,
		Password: *password,
	}
	if *fullName != "" {
		req.FullName = fullName
	}

	admin, err := authService.Register(ctx, req)
	if err != nil {
		log.Fatal("Failed to create admin:", err)
	}

	log.Printf("Created admin %s (%s)", admin.Username, admin.ID)
}
