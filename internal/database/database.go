package database

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/zfogg/brandcast/internal/logger"
	"github.com/zfogg/brandcast/internal/models"
	"github.com/zfogg/brandcast/internal/telemetry"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB holds the database connection
var DB *gorm.DB

// Initialize creates and configures the database connection.
// DATABASE_URL may be a Postgres DSN/URL or "sqlite://<path>" for local runs.
func Initialize() error {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		host := getEnvOrDefault("DB_HOST", "localhost")
		port := getEnvOrDefault("DB_PORT", "5432")
		user := getEnvOrDefault("DB_USER", "postgres")
		password := getEnvOrDefault("DB_PASSWORD", "")
		dbname := getEnvOrDefault("DB_NAME", "brandcast")
		sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

		databaseURL = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode)
	}

	gormLog := gormlogger.Default
	if os.Getenv("ENVIRONMENT") == "development" {
		gormLog = gormlogger.Default.LogMode(gormlogger.Info)
	}

	var (
		db  *gorm.DB
		err error
	)
	if path, ok := strings.CutPrefix(databaseURL, "sqlite://"); ok {
		db, err = OpenSQLite(path)
	} else {
		db, err = gorm.Open(postgres.Open(databaseURL), &gorm.Config{
			Logger:  gormLog,
			NowFunc: func() time.Time { return time.Now().UTC() },
		})
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Use(telemetry.GORMTracingPlugin()); err != nil {
		return fmt.Errorf("failed to install tracing plugin: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db
	logger.Log.Info("Database connected", zap.String("driver", db.Dialector.Name()))
	return nil
}

// OpenSQLite opens a SQLite database. ":memory:" databases are pinned to a
// single connection so every query sees the same schema.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate runs auto-migration for all models
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	return MigrateDB(DB)
}

// MigrateDB runs auto-migration against the given connection
func MigrateDB(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.SocialAccount{},
		&models.BrandProfile{},
		&models.MediaAsset{},
		&models.CalendarEntry{},
		&models.PublishJob{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if db.Dialector.Name() == "postgres" {
		createIndexes(db)
	}

	logger.Log.Info("Database migrations completed")
	return nil
}

// createIndexes creates Postgres-only performance indexes
func createIndexes(db *gorm.DB) {
	db.Exec("CREATE INDEX IF NOT EXISTS idx_users_email_lower ON users (LOWER(email))")

	// Scheduler scans
	db.Exec("CREATE INDEX IF NOT EXISTS idx_calendar_entries_due ON calendar_entries (scheduled_at) WHERE status = 'scheduled' AND deleted_at IS NULL")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_calendar_entries_user_scheduled ON calendar_entries (user_id, scheduled_at)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_publish_jobs_due ON publish_jobs (next_attempt_at) WHERE status IN ('pending', 'retrying')")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_publish_jobs_running ON publish_jobs (locked_at) WHERE status = 'running'")

	db.Exec("CREATE INDEX IF NOT EXISTS idx_social_accounts_user_platform ON social_accounts (user_id, platform) WHERE deleted_at IS NULL")
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health checks database connectivity
func Health() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
