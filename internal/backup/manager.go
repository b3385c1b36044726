package backup

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager handles database backups with verification and tiered retention.
// It can run as a scheduled service via Run or be driven one call at a time.
type Manager struct {
	dbPath    string
	dir       string
	interval  time.Duration
	retention RetentionPolicy
	verify    bool

	mu             sync.Mutex
	running        bool
	stopCh         chan struct{}
	lastBackupTime time.Time
	nextBackupTime time.Time
}

// NewManager creates a backup manager with the given configuration.
func NewManager(config Config) (*Manager, error) {
	if config.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	if config.Dir == "" {
		return nil, fmt.Errorf("backup directory is required")
	}

	if config.Interval <= 0 {
		config.Interval = 1 * time.Hour
	}

	if config.Retention.Hourly == 0 {
		config.Retention.Hourly = 24
	}
	if config.Retention.Daily == 0 {
		config.Retention.Daily = 7
	}
	if config.Retention.Weekly == 0 {
		config.Retention.Weekly = 4
	}
	if config.Retention.Monthly == 0 {
		config.Retention.Monthly = 12
	}

	if err := os.MkdirAll(config.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	return &Manager{
		dbPath:    config.DBPath,
		dir:       config.Dir,
		interval:  config.Interval,
		retention: config.Retention,
		verify:    config.Verify,
		stopCh:    make(chan struct{}),
	}, nil
}

// Run starts the scheduled backup loop. It blocks until the context is
// cancelled or Stop is called.
func (m *Manager) Run(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("backup manager is already running")
	}
	m.running = true
	m.nextBackupTime = time.Now().Add(m.interval)
	m.mu.Unlock()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	log.Printf("Backup manager started: interval=%v, dir=%s", m.interval, m.dir)

	for {
		select {
		case <-ctx.Done():
			log.Println("Backup manager stopping (context cancelled)")
			return ctx.Err()

		case <-m.stopCh:
			log.Println("Backup manager stopping (stop requested)")
			return nil

		case <-ticker.C:
			log.Println("Starting scheduled backup...")
			result, err := m.Create(ctx)
			if err != nil {
				log.Printf("Scheduled backup failed: %v", err)
			} else {
				log.Printf("Scheduled backup completed: id=%s, size=%d bytes, duration=%v, verified=%v",
					result.ID, result.Size, result.Duration, result.Verified)
			}

			m.mu.Lock()
			m.nextBackupTime = time.Now().Add(m.interval)
			m.mu.Unlock()
		}
	}
}

// Stop stops a running backup loop gracefully.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return fmt.Errorf("backup manager is not running")
	}

	close(m.stopCh)
	m.running = false
	return nil
}

// Create performs an immediate backup: snapshot the database into a
// timestamped file, record size and sha256 in a JSON manifest, optionally
// verify, then apply the retention policy.
func (m *Manager) Create(ctx context.Context) (*Result, error) {
	startTime := time.Now()

	if _, err := os.Stat(m.dbPath); err != nil {
		return nil, fmt.Errorf("database not found: %w", err)
	}

	// Timestamp plus a uuid fragment keeps names unique even when two
	// backups land within the same second.
	id := fmt.Sprintf("marquee-%s-%s",
		startTime.Format("20060102-150405"), uuid.NewString()[:8])
	backupPath := filepath.Join(m.dir, id+".db")

	if err := snapshotSQLite(ctx, m.dbPath, backupPath); err != nil {
		return nil, err
	}

	info, err := os.Stat(backupPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat backup: %w", err)
	}

	hash, err := hashFile(backupPath)
	if err != nil {
		return nil, err
	}

	if err := writeManifest(backupPath, manifest{
		ID:        id,
		Source:    m.dbPath,
		CreatedAt: startTime,
		Size:      info.Size(),
		SHA256:    hash,
	}); err != nil {
		return nil, err
	}

	result := &Result{
		ID:       id,
		Path:     backupPath,
		Duration: time.Since(startTime),
		Size:     info.Size(),
		SHA256:   hash,
	}

	if m.verify {
		if err := verifySQLite(backupPath); err != nil {
			return result, fmt.Errorf("backup verification failed: %w", err)
		}
		result.Verified = true
	}

	m.mu.Lock()
	m.lastBackupTime = time.Now()
	m.mu.Unlock()

	if err := applyRetention(m.dir, m.retention); err != nil {
		log.Printf("Warning: failed to apply retention policy: %v", err)
		// Don't fail the backup operation due to retention errors.
	}

	return result, nil
}

// List returns all stored backups, newest first.
func (m *Manager) List() ([]Info, error) {
	return listBackups(m.dir)
}

// Verify re-hashes the identified backup, compares it against the manifest,
// and runs SQLite's integrity check.
func (m *Manager) Verify(id string) error {
	backupPath, err := m.resolve(id)
	if err != nil {
		return err
	}

	recorded, err := readManifest(backupPath)
	if err != nil {
		return err
	}

	hash, err := hashFile(backupPath)
	if err != nil {
		return err
	}
	if hash != recorded.SHA256 {
		return fmt.Errorf("backup %s is corrupt: sha256 %s does not match manifest %s",
			id, hash, recorded.SHA256)
	}

	return verifySQLite(backupPath)
}

// Restore replaces the database with the identified backup. A pre-restore
// snapshot of the current database is taken first; on failure the manager
// rolls back to it. The database must not be in use.
func (m *Manager) Restore(ctx context.Context, id string) error {
	m.mu.Lock()
	running := m.running
	m.mu.Unlock()

	if running {
		return fmt.Errorf("cannot restore while the backup loop is running")
	}

	backupPath, err := m.resolve(id)
	if err != nil {
		return err
	}

	if err := m.Verify(id); err != nil {
		return err
	}

	// Keep a safety copy of the current database so a failed restore can
	// be rolled back.
	tempBackup := m.dbPath + ".pre-restore"
	if _, err := os.Stat(m.dbPath); err == nil {
		if err := snapshotSQLite(ctx, m.dbPath, tempBackup); err != nil {
			return fmt.Errorf("failed to create pre-restore backup: %w", err)
		}
		defer func() {
			os.Remove(tempBackup)
		}()
	}

	if err := restoreSQLite(backupPath, m.dbPath); err != nil {
		if _, statErr := os.Stat(tempBackup); statErr == nil {
			if restoreErr := restoreSQLite(tempBackup, m.dbPath); restoreErr != nil {
				return fmt.Errorf("restore failed and rollback failed: %v (restore error: %w)", restoreErr, err)
			}
			return fmt.Errorf("restore failed, rolled back to previous state: %w", err)
		}
		return err
	}

	log.Printf("Database restored from backup: %s", id)
	return nil
}

// Prune applies the retention policy immediately.
func (m *Manager) Prune() error {
	return applyRetention(m.dir, m.retention)
}

// Health returns the current health status of the backup manager.
func (m *Manager) Health() (*HealthStatus, error) {
	m.mu.Lock()
	lastBackup := m.lastBackupTime
	nextBackup := m.nextBackupTime
	m.mu.Unlock()

	backups, err := m.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	diskUsage, err := calculateDiskUsage(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate disk usage: %w", err)
	}

	status := &HealthStatus{
		LastBackup:    lastBackup,
		NextBackup:    nextBackup,
		TotalBackups:  len(backups),
		Dir:           m.dir,
		DiskSpaceUsed: diskUsage,
		Status:        "healthy",
	}

	if !lastBackup.IsZero() && time.Since(lastBackup) > m.interval*2 {
		status.Status = "warning"
		status.Message = fmt.Sprintf("Backup overdue by %v", time.Since(lastBackup)-m.interval)
	} else if lastBackup.IsZero() {
		status.Message = "No backups yet"
	} else {
		status.Message = fmt.Sprintf("Last backup: %v ago", time.Since(lastBackup).Round(time.Minute))
	}

	return status, nil
}

// resolve maps a backup id (or bare file name) to its path in the backup
// directory.
func (m *Manager) resolve(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("backup id is required")
	}
	name := filepath.Base(id)
	if !strings.HasSuffix(name, ".db") {
		name += ".db"
	}
	path := filepath.Join(m.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("backup not found: %w", err)
	}
	return path, nil
}
