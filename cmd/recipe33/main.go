package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/petervd13-web/Recipe33/internal/config"
	"github.com/petervd13-web/Recipe33/internal/database"
	"github.com/petervd13-web/Recipe33/internal/metrics"
	"github.com/petervd13-web/Recipe33/internal/storage"
)

func main() {
	ctx := context.Background()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "stats":
		statsCmd := flag.NewFlagSet("stats", flag.ExitOnError)
		days := statsCmd.Int("days", 7, "Show usage for the last N days")
		statsCmd.Parse(os.Args[2:])

		telemetry := metrics.NewStore(db.SQL)
		usage, err := telemetry.GetDailyUsage(ctx, *days)
		if err != nil {
			log.Fatalf("Failed to fetch usage: %v", err)
		}

		fmt.Printf("AI usage, last %d days:\n", *days)
		if len(usage) == 0 {
			fmt.Println("  no recorded calls")
		}
		for _, d := range usage {
			fmt.Printf("  %s  %6d prompt  %6d completion  %3d calls\n",
				d.Date, d.TotalPrompt, d.TotalCompletion, d.TotalExecution)
		}

		health := metrics.GetSysHealth(cfg.DatabasePath)
		fmt.Printf("\nProcess: %dMB alloc / %dMB sys, %d goroutines\n",
			health.AllocMB, health.SysMB, health.Goroutines)
		fmt.Printf("Database: %s\n", health.DatabaseSize)

	case "cleanup":
		cleanupCmd := flag.NewFlagSet("cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 90, "Keep metric records for the last N days")
		cleanupCmd.Parse(os.Args[2:])

		telemetry := metrics.NewStore(db.SQL)
		affected, err := telemetry.Cleanup(ctx, *days)
		if err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
		fmt.Printf("Successfully removed %d old metric records.\n", affected)

	case "export":
		store := storage.NewStore(db.SQL)
		data, err := store.Load(ctx, storage.SlotCookbook)
		if err != nil {
			log.Fatalf("Failed to load cookbook: %v", err)
		}
		if data == nil {
			data = []byte("[]")
		}
		var out bytes.Buffer
		if err := json.Indent(&out, data, "", "  "); err != nil {
			log.Fatalf("Cookbook slot holds invalid JSON: %v", err)
		}
		fmt.Println(out.String())

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: recipe33 <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  stats      Show AI token usage and process health")
	fmt.Println("  cleanup    Remove old metric records")
	fmt.Println("  export     Print the saved cookbook as JSON")
}
