package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// listBackups lists all backup files in the backup directory with their
// metadata, newest first. Creation time comes from the manifest when one
// exists, otherwise from the file's mtime.
func listBackups(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var backups []Info
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		// Only include .db files; manifests and scratch files are skipped.
		if !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		fsInfo, err := entry.Info()
		if err != nil {
			continue // Skip files we can't stat
		}

		info := Info{
			ID:        strings.TrimSuffix(entry.Name(), ".db"),
			Path:      path,
			Timestamp: fsInfo.ModTime(),
			Size:      fsInfo.Size(),
		}
		if m, err := readManifest(path); err == nil && !m.CreatedAt.IsZero() {
			info.Timestamp = m.CreatedAt
			info.SHA256 = m.SHA256
		}

		backups = append(backups, info)
	}

	// Sort by timestamp, newest first.
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})

	return backups, nil
}

// applyRetention removes old backups according to the retention policy.
// It categorizes backups by age and keeps only the specified number in each
// tier. Manifests are removed together with their backup files.
func applyRetention(dir string, policy RetentionPolicy) error {
	backups, err := listBackups(dir)
	if err != nil {
		return err
	}

	if len(backups) == 0 {
		return nil
	}

	now := time.Now()
	toDelete := []string{}

	var hourly, daily, weekly, monthly []Info

	for _, backup := range backups {
		age := now.Sub(backup.Timestamp)
		switch {
		case age < 24*time.Hour:
			hourly = append(hourly, backup)
		case age < 7*24*time.Hour:
			daily = append(daily, backup)
		case age < 30*24*time.Hour:
			weekly = append(weekly, backup)
		case age < 365*24*time.Hour:
			monthly = append(monthly, backup)
		default:
			// Backups older than 1 year are always deleted.
			toDelete = append(toDelete, backup.Path)
		}
	}

	if len(hourly) > policy.Hourly {
		for _, backup := range hourly[policy.Hourly:] {
			toDelete = append(toDelete, backup.Path)
		}
	}

	if len(daily) > policy.Daily {
		for _, backup := range daily[policy.Daily:] {
			toDelete = append(toDelete, backup.Path)
		}
	}

	if len(weekly) > policy.Weekly {
		for _, backup := range weekly[policy.Weekly:] {
			toDelete = append(toDelete, backup.Path)
		}
	}

	if len(monthly) > policy.Monthly {
		for _, backup := range monthly[policy.Monthly:] {
			toDelete = append(toDelete, backup.Path)
		}
	}

	var lastErr error
	for _, path := range toDelete {
		if err := os.Remove(path); err != nil {
			lastErr = err
			// Continue deleting other backups even if one fails.
		}
		if err := os.Remove(manifestPath(path)); err != nil && !os.IsNotExist(err) {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to delete some backups: %w", lastErr)
	}

	return nil
}

// calculateDiskUsage calculates total bytes used by all backups.
func calculateDiskUsage(dir string) (int64, error) {
	backups, err := listBackups(dir)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, backup := range backups {
		total += backup.Size
	}

	return total, nil
}
