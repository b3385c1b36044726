// Package backup provides automated user-database backup and restore with
// tiered retention policies and integrity verification.
package backup

import (
	"time"
)

// Config holds backup manager configuration.
type Config struct {
	// DBPath is the path to the SQLite database file to back up
	DBPath string

	// Dir is the directory where backups will be stored
	Dir string

	// Interval is the duration between automated backups (default: 1 hour)
	Interval time.Duration

	// Retention defines how long to keep backups at different intervals
	Retention RetentionPolicy

	// Verify enables integrity checking after each backup
	Verify bool
}

// RetentionPolicy defines how many backups to keep at each tier.
// Backups are categorized by age:
// - Hourly: backups less than 24 hours old
// - Daily: backups between 1-7 days old
// - Weekly: backups between 7-30 days old
// - Monthly: backups between 30-365 days old
type RetentionPolicy struct {
	// Hourly is the number of hourly backups to keep (default: 24)
	Hourly int

	// Daily is the number of daily backups to keep (default: 7)
	Daily int

	// Weekly is the number of weekly backups to keep (default: 4)
	Weekly int

	// Monthly is the number of monthly backups to keep (default: 12)
	Monthly int
}

// Info contains metadata about a stored backup.
type Info struct {
	// ID is the backup's file name without the .db extension
	ID string

	// Path is the full path to the backup file
	Path string

	// Timestamp is when the backup was created
	Timestamp time.Time

	// Size is the backup file size in bytes
	Size int64

	// SHA256 is the content hash recorded at creation time
	SHA256 string
}

// Result contains the result of a backup operation.
type Result struct {
	// ID identifies the created backup
	ID string

	// Path is the path to the created backup file
	Path string

	// Duration is how long the backup took
	Duration time.Duration

	// Size is the backup file size in bytes
	Size int64

	// SHA256 is the content hash recorded in the manifest
	SHA256 string

	// Verified indicates if the backup was verified successfully
	Verified bool
}

// HealthStatus represents the health of the backup manager.
type HealthStatus struct {
	// Status is the overall health status: "healthy", "warning", or "error"
	Status string

	// Message provides additional context about the status
	Message string

	// LastBackup is when the last successful backup completed
	LastBackup time.Time

	// NextBackup is when the next backup is scheduled
	NextBackup time.Time

	// TotalBackups is the number of backups currently stored
	TotalBackups int

	// Dir is the backup storage directory
	Dir string

	// DiskSpaceUsed is total bytes used by all backups
	DiskSpaceUsed int64
}

// manifest is the JSON sidecar written next to each backup file.
type manifest struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	Size      int64     `json:"size"`
	SHA256    string    `json:"sha256"`
}
