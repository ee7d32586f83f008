// Package storage owns the SQLite connection and the low-level resource
// read/write helpers the flow engine builds on: timestamped reads and
// version-checked writes with a classified contention error.
package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/EnCirca/nomulus/internal/history"
	"github.com/EnCirca/nomulus/internal/model"
	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrContention reports a lost optimistic-concurrency race: the resource
// version read at load time was no longer current at commit time. Callers
// retry the whole flow a bounded number of times.
var ErrContention = errors.New("storage: resource version conflict")

// Open establishes a SQLite connection and performs schema migrations.
func Open(path string, logger *zap.Logger) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&model.Resource{}, &history.CommitLogRecord{}, &migrationRecord{}); err != nil {
		return nil, err
	}

	if err := applyMigrations(db, logger); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("database initialized", zap.String("path", path))
	}

	return db, nil
}

// FindResourceAtTime loads the resource of the given kind and name that
// exists as of instant t. A name freed by soft deletion may be claimed by a
// later creation, so the newest row created at or before t is the candidate.
// Returns (nil, nil) when the resource is absent or already soft deleted
// at t.
func FindResourceAtTime(tx *gorm.DB, kind model.ResourceKind, name model.ResourceName, t time.Time) (*model.Resource, error) {
	var resource model.Resource
	err := tx.Where("kind = ? AND name = ? AND created_at_ms <= ?", kind, name.String(), t.UnixMilli()).
		Order("created_at_ms DESC").
		First(&resource).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: loading %s %s: %w", kind, name, err)
	}
	if !resource.ExistsAt(t) {
		return nil, nil
	}
	return &resource, nil
}

// SaveResourceVersioned persists an updated resource only if its stored
// version still equals expectedVersion; any other concurrent committer wins
// the race and this write reports ErrContention.
func SaveResourceVersioned(tx *gorm.DB, resource *model.Resource, expectedVersion int64) error {
	result := tx.Model(&model.Resource{}).
		Where("repo_id = ? AND version = ?", resource.RepoID, expectedVersion).
		Select("*").
		Updates(resource)
	if result.Error != nil {
		return fmt.Errorf("storage: saving %s: %w", resource.RepoID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s at version %d", ErrContention, resource.RepoID, expectedVersion)
	}
	return nil
}

// CreateResource inserts a brand new resource row.
func CreateResource(tx *gorm.DB, resource *model.Resource) error {
	if err := tx.Create(resource).Error; err != nil {
		return fmt.Errorf("storage: creating %s: %w", resource.RepoID, err)
	}
	return nil
}

// ResourceExists reports whether a live resource of the given kind and name
// exists at t. Create flows use it to reject duplicates.
func ResourceExists(tx *gorm.DB, kind model.ResourceKind, name model.ResourceName, t time.Time) (bool, error) {
	resource, err := FindResourceAtTime(tx, kind, name, t)
	if err != nil {
		return false, err
	}
	return resource != nil, nil
}
