package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"dialtest/internal/api"
	"dialtest/internal/models"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Database connection
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "host=localhost user=postgres password=postgres dbname=dialtest port=5432 sslmode=disable"
	}

	// Configure GORM logger to ignore "record not found" errors; the
	// duplicate pre-check misses on every fresh upload
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	// TranslateError so (name, version) unique violations surface as
	// gorm.ErrDuplicatedKey; the catalog relies on the constraint,
	// not the pre-check, for duplicate detection under races
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         newLogger,
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := models.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	if err := seedAdminUser(db); err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	apiServer := api.NewServer(db, []byte(jwtSecret))

	httpPort := os.Getenv("HTTP_PORT")
	if httpPort == "" {
		httpPort = "8080"
	}

	log.Printf("Starting HTTP server on 0.0.0.0:%s", httpPort)
	log.Printf("REST API endpoint: http://0.0.0.0:%s/api/v1", httpPort)
	log.Printf("Metrics endpoint: http://0.0.0.0:%s/metrics", httpPort)

	if err := http.ListenAndServe("0.0.0.0:"+httpPort, apiServer.GetRouter()); err != nil {
		log.Fatalf("HTTP server failed: %v", err)
	}
}

// seedAdminUser creates the initial admin account when the user table
// is empty. Password comes from ADMIN_PASSWORD.
func seedAdminUser(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin"
		log.Println("ADMIN_PASSWORD not set, using default password for admin user")
	}

	user := models.User{
		ID:        uuid.New().String(),
		Username:  "admin",
		Role:      "admin",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := user.SetPassword(password); err != nil {
		return err
	}
	return db.Create(&user).Error
}
