package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/you/companionsvc/internal/infrastructure/database"
)

// Connectivity check for the backends a local setup needs
func main() {
	_ = godotenv.Load()

	dsn := "host=localhost user=companion password=companion dbname=companion port=5432 sslmode=disable"
	if envDSN := os.Getenv("DATABASE_DSN"); envDSN != "" {
		dsn = envDSN
	}
	redisAddr := "localhost:6379"
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		redisAddr = v
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fmt.Println("Backend Connection Test")
	fmt.Println("=======================")

	db, err := database.Open(dsn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if err := (database.SQLPinger{DB: db}).Ping(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	fmt.Println("✓ Database connection successful")

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run auto-migration: %v", err)
	}
	fmt.Println("✓ AutoMigrate completed successfully")

	for _, table := range []string{"users", "bots", "chat_messages"} {
		var count int64
		if err := db.Table(table).Count(&count).Error; err != nil {
			log.Fatalf("Failed to query %s table: %v", table, err)
		}
		fmt.Printf("✓ %s table accessible (current count: %d)\n", table, count)
	}

	rdb := database.NewRedis(redisAddr, os.Getenv("REDIS_PASSWORD"), 0)
	defer rdb.Close()
	if err := rdb.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping redis at %s: %v", redisAddr, err)
	}
	fmt.Println("✓ Redis connection successful")

	if uri := os.Getenv("MONGO_URI"); uri != "" {
		mc, err := database.OpenMongo(ctx, uri, "companion")
		if err != nil {
			log.Fatalf("Failed to connect to mongo: %v", err)
		}
		defer mc.Close(context.Background())
		fmt.Println("✓ Mongo connection successful")
	} else {
		fmt.Println("- MONGO_URI not set, skipping mongo")
	}

	fmt.Println("\nBackends are ready.")
}
