package main

import (
	"errors"
	"flag"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/bustrack/bus-tracking-backend/internal/config"
	"github.com/bustrack/bus-tracking-backend/internal/database"
	"github.com/bustrack/bus-tracking-backend/internal/models"
)

// Bootstraps the first admin account. Credentials come from flags,
// falling back to ADMIN_EMAIL / ADMIN_PASSWORD / ADMIN_NAME.
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	email := flag.String("email", cfg.Admin.Email, "admin email")
	password := flag.String("password", cfg.Admin.Password, "admin password")
	name := flag.String("name", cfg.Admin.Name, "admin display name")
	flag.Parse()

	if len(*password) < 6 {
		logger.Fatal("Password must be at least 6 characters")
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), cfg.Security.BcryptCost)
	if err != nil {
		logger.Fatalf("Failed to hash password: %v", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        *email,
		PasswordHash: string(hash),
		Name:         *name,
		Role:         models.RoleAdmin,
		IsActive:     true,
	}

	userRepo := database.NewUserRepository(db)
	if err := userRepo.Create(user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			logger.WithField("email", *email).Info("Admin already exists, nothing to do")
			return
		}
		logger.Fatalf("Failed to create admin: %v", err)
	}

	logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("Admin account created")
}
