// Command marquee-backup runs the automated user-database backup service.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/filmbuff/marquee/internal/backup"
	"github.com/filmbuff/marquee/internal/config"
)

var (
	configPath = flag.String("config", "", "Path to config file (optional, uses env vars by default)")
	dbPath     = flag.String("db", "", "Path to the user database (overrides config)")
	backupDir  = flag.String("dir", "", "Backup directory (overrides config)")
	interval   = flag.Duration("interval", 0, "Backup interval (overrides config)")
	oneshot    = flag.Bool("oneshot", false, "Perform a single backup and exit")
	listCmd    = flag.Bool("list", false, "List all available backups and exit")
	restoreID  = flag.String("restore", "", "Restore the database from this backup id and exit")
	verifyID   = flag.String("verify", "", "Verify this backup against its manifest and exit")
	healthCmd  = flag.Bool("health", false, "Check backup service health and exit")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfigFile(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	dbPathFinal := cfg.UserData.DBPath
	if *dbPath != "" {
		dbPathFinal = *dbPath
	}

	backupDirFinal := cfg.Backup.Dir
	if *backupDir != "" {
		backupDirFinal = *backupDir
	}

	intervalFinal := 24 * time.Hour
	if cfg.Backup.Interval != "" {
		if d, err := time.ParseDuration(cfg.Backup.Interval); err == nil {
			intervalFinal = d
		}
	}
	if *interval > 0 {
		intervalFinal = *interval
	}

	manager, err := backup.NewManager(backup.Config{
		DBPath:   dbPathFinal,
		Dir:      backupDirFinal,
		Interval: intervalFinal,
		Retention: backup.RetentionPolicy{
			Hourly:  cfg.Backup.RetentionHourly,
			Daily:   cfg.Backup.RetentionDaily,
			Weekly:  cfg.Backup.RetentionWeekly,
			Monthly: cfg.Backup.RetentionMonthly,
		},
		Verify: cfg.Backup.Verify,
	})
	if err != nil {
		log.Fatalf("Failed to create backup manager: %v", err)
	}

	ctx := context.Background()

	switch {
	case *restoreID != "":
		handleRestore(ctx, manager, *restoreID)
	case *verifyID != "":
		handleVerify(manager, *verifyID)
	case *healthCmd:
		handleHealth(manager)
	case *listCmd:
		handleList(manager)
	case *oneshot:
		handleOneshot(ctx, manager)
	default:
		runService(ctx, manager)
	}
}

func handleRestore(ctx context.Context, manager *backup.Manager, id string) {
	log.Printf("Restoring database from backup: %s", id)

	if err := manager.Restore(ctx, id); err != nil {
		log.Fatalf("Restore failed: %v", err)
	}

	log.Println("Database restored successfully")
}

func handleVerify(manager *backup.Manager, id string) {
	if err := manager.Verify(id); err != nil {
		log.Fatalf("Verification failed: %v", err)
	}
	fmt.Printf("Backup %s verified: hash matches manifest, integrity check passed\n", id)
}

func handleHealth(manager *backup.Manager) {
	health, err := manager.Health()
	if err != nil {
		log.Fatalf("Health check failed: %v", err)
	}

	fmt.Printf("Status: %s\n", health.Status)
	if health.Message != "" {
		fmt.Printf("Message: %s\n", health.Message)
	}
	fmt.Printf("Total Backups: %d\n", health.TotalBackups)
	fmt.Printf("Disk Space Used: %.2f MB\n", float64(health.DiskSpaceUsed)/(1024*1024))
	fmt.Printf("Backup Directory: %s\n", health.Dir)

	if !health.LastBackup.IsZero() {
		fmt.Printf("Last Backup: %s (%s ago)\n",
			health.LastBackup.Format(time.RFC3339),
			time.Since(health.LastBackup).Round(time.Minute))
	} else {
		fmt.Println("Last Backup: Never")
	}

	if !health.NextBackup.IsZero() {
		fmt.Printf("Next Backup: %s (in %s)\n",
			health.NextBackup.Format(time.RFC3339),
			time.Until(health.NextBackup).Round(time.Minute))
	}

	if health.Status != "healthy" {
		os.Exit(1)
	}
}

func handleList(manager *backup.Manager) {
	backups, err := manager.List()
	if err != nil {
		log.Fatalf("Failed to list backups: %v", err)
	}

	if len(backups) == 0 {
		fmt.Println("No backups found")
		return
	}

	fmt.Printf("Found %d backup(s):\n\n", len(backups))
	for i, b := range backups {
		fmt.Printf("%d. %s\n", i+1, b.ID)
		fmt.Printf("   Size: %.2f MB\n", float64(b.Size)/(1024*1024))
		fmt.Printf("   Created: %s (%s ago)\n",
			b.Timestamp.Format(time.RFC3339),
			time.Since(b.Timestamp).Round(time.Minute))
		if b.SHA256 != "" {
			fmt.Printf("   SHA256: %s\n", b.SHA256)
		}
		fmt.Println()
	}
}

func handleOneshot(ctx context.Context, manager *backup.Manager) {
	log.Println("Performing one-time backup...")

	result, err := manager.Create(ctx)
	if err != nil {
		log.Fatalf("Backup failed: %v", err)
	}

	log.Printf("Backup completed successfully:")
	log.Printf("  ID: %s", result.ID)
	log.Printf("  Path: %s", result.Path)
	log.Printf("  Size: %.2f MB", float64(result.Size)/(1024*1024))
	log.Printf("  Duration: %v", result.Duration)
	log.Printf("  Verified: %v", result.Verified)
}

func runService(ctx context.Context, manager *backup.Manager) {
	// Start the backup loop in the background
	go func() {
		if err := manager.Run(ctx); err != nil {
			if err != context.Canceled {
				log.Printf("Backup service error: %v", err)
			}
		}
	}()

	log.Println("Marquee backup service started")
	log.Println("Press Ctrl+C to stop")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down backup service...")
	if err := manager.Stop(); err != nil {
		log.Printf("Warning: %v", err)
	}

	log.Println("Backup service stopped")
}
