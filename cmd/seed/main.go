package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/zfogg/brandcast/internal/config"
	"github.com/zfogg/brandcast/internal/database"
	"github.com/zfogg/brandcast/internal/secrets"
	"github.com/zfogg/brandcast/internal/seed"
	"github.com/zfogg/brandcast/internal/tokens"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	command := "dev"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "dev":
		users := 20
		if len(os.Args) > 2 {
			n, err := strconv.Atoi(os.Args[2])
			if err != nil || n < 1 {
				log.Fatalf("❌ Invalid user count %q", os.Args[2])
			}
			users = n
		}
		seedDev(users)
	case "test":
		seedTest()
	case "clean":
		cleanSeed()
	default:
		fmt.Println("Usage: seed [dev [users]|test|clean]")
		fmt.Println("  dev   - Seed development database with users, brands and calendar entries")
		fmt.Println("  test  - Seed test database with fixed users")
		fmt.Println("  clean - Remove all data (use with caution)")
		os.Exit(1)
	}
}

func connect() {
	if err := database.Initialize(); err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	if err := database.Migrate(); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	log.Println("✅ Database connected")
}

func seedDev(users int) {
	log.Println("🌱 Seeding development database...")
	connect()
	defer database.Close()

	seeder := seed.NewSeeder(database.DB, time.Now().UnixNano())

	// Accounts need the token key to seal their (fake) tokens
	if key := os.Getenv("TOKEN_ENCRYPTION_KEY"); key != "" {
		box, err := secrets.NewBox(key)
		if err != nil {
			log.Fatalf("❌ Invalid TOKEN_ENCRYPTION_KEY: %v", err)
		}
		seeder.SetAccountConnector(tokens.NewManager(box, nil, config.LoadOAuthConfig()))
		log.Println("🔐 Seeding Twitter and LinkedIn accounts")
	} else {
		log.Println("⚠️  TOKEN_ENCRYPTION_KEY not set - skipping account seeding")
	}

	counts, err := seeder.SeedDev(context.Background(), users)
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✅ Seeded %d users, %d brands, %d accounts and %d entries (password: %s)",
		counts.Users, counts.Brands, counts.Accounts, counts.Entries, seed.DefaultPassword)
}

func seedTest() {
	log.Println("🧪 Seeding test database...")
	connect()
	defer database.Close()

	counts, err := seed.NewSeeder(database.DB, 1).SeedTest(context.Background())
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✅ Test database seeded (%d new users)", counts.Users)
}

func cleanSeed() {
	log.Println("🧹 Cleaning seed data...")
	connect()
	defer database.Close()

	if err := seed.NewSeeder(database.DB, 1).Clean(); err != nil {
		log.Fatalf("❌ Clean failed: %v", err)
	}

	log.Println("✅ Seed data cleaned successfully!")
}
