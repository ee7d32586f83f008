package storage

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/EnCirca/nomulus/internal/model"
	"gorm.io/gorm"
)

func TestOpenMigratesSchema(t *testing.T) {
	db := newStorageTestDB(t)
	if !db.Migrator().HasTable("resources") {
		t.Fatalf("expected resources table")
	}
	if !db.Migrator().HasTable("commit_log_records") {
		t.Fatalf("expected commit_log_records table")
	}
	if !db.Migrator().HasTable("db_migrations") {
		t.Fatalf("expected db_migrations table")
	}
}

func TestFindResourceAtTimeHonorsLifecycle(t *testing.T) {
	db := newStorageTestDB(t)
	created := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	deleted := created.AddDate(0, 0, 10)

	resource := &model.Resource{
		RepoID:                 "repo-1",
		Kind:                   model.KindDomain,
		Name:                   "example.tld",
		TLD:                    "tld",
		CurrentSponsorClientID: "TheRegistrar",
		Statuses:               model.NewStatusSet(model.StatusOK),
		Revisions:              model.NewRevisionIndex(),
		CreationTimeMillis:     created.UnixMilli(),
		LastUpdateTimeMillis:   created.UnixMilli(),
		DeletionTimeMillis:     deleted.UnixMilli(),
		Version:                1,
	}
	if err := CreateResource(db, resource); err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}

	name, _ := model.NewResourceName("example.tld")
	tests := []struct {
		name   string
		at     time.Time
		exists bool
	}{
		{name: "before-creation", at: created.Add(-time.Hour), exists: false},
		{name: "while-live", at: created.AddDate(0, 0, 5), exists: true},
		{name: "at-deletion", at: deleted, exists: false},
		{name: "after-deletion", at: deleted.Add(time.Hour), exists: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := FindResourceAtTime(db, model.KindDomain, name, tt.at)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if (found != nil) != tt.exists {
				t.Fatalf("existence at %s = %v, want %v", tt.at, found != nil, tt.exists)
			}
		})
	}
}

func TestFindResourceAtTimePrefersNewestRowForReusedName(t *testing.T) {
	db := newStorageTestDB(t)
	firstCreated := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	firstDeleted := firstCreated.AddDate(0, 0, 3)
	secondCreated := firstCreated.AddDate(0, 0, 7)

	for _, resource := range []*model.Resource{
		{
			RepoID: "repo-old", Kind: model.KindDomain, Name: "example.tld", TLD: "tld",
			CurrentSponsorClientID: "TheRegistrar",
			Statuses:               model.NewStatusSet(model.StatusPendingDelete),
			Revisions:              model.NewRevisionIndex(),
			CreationTimeMillis:     firstCreated.UnixMilli(),
			LastUpdateTimeMillis:   firstDeleted.UnixMilli(),
			DeletionTimeMillis:     firstDeleted.UnixMilli(),
			Version:                2,
		},
		{
			RepoID: "repo-new", Kind: model.KindDomain, Name: "example.tld", TLD: "tld",
			CurrentSponsorClientID: "NewRegistrar",
			Statuses:               model.NewStatusSet(model.StatusOK),
			Revisions:              model.NewRevisionIndex(),
			CreationTimeMillis:     secondCreated.UnixMilli(),
			LastUpdateTimeMillis:   secondCreated.UnixMilli(),
			Version:                1,
		},
	} {
		if err := CreateResource(db, resource); err != nil {
			t.Fatalf("unexpected create error: %v", err)
		}
	}

	name, _ := model.NewResourceName("example.tld")

	found, err := FindResourceAtTime(db, model.KindDomain, name, secondCreated.Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found == nil || found.RepoID != "repo-new" {
		t.Fatalf("expected repo-new after re-creation, got %+v", found)
	}

	found, err = FindResourceAtTime(db, model.KindDomain, name, firstCreated.Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found == nil || found.RepoID != "repo-old" {
		t.Fatalf("expected repo-old during its lifetime, got %+v", found)
	}
}

func TestSaveResourceVersionedDetectsContention(t *testing.T) {
	db := newStorageTestDB(t)
	created := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

	resource := &model.Resource{
		RepoID:                 "repo-1",
		Kind:                   model.KindHost,
		Name:                   "ns1.example.tld",
		CurrentSponsorClientID: "TheRegistrar",
		Statuses:               model.NewStatusSet(model.StatusOK),
		Revisions:              model.NewRevisionIndex(),
		CreationTimeMillis:     created.UnixMilli(),
		LastUpdateTimeMillis:   created.UnixMilli(),
		Version:                1,
	}
	if err := CreateResource(db, resource); err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}

	winner := *resource
	winner.Version = 2
	if err := SaveResourceVersioned(db, &winner, 1); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}

	// A second writer based on the stale version loses the race.
	loser := *resource
	loser.Version = 2
	err := SaveResourceVersioned(db, &loser, 1)
	if !errors.Is(err, ErrContention) {
		t.Fatalf("expected contention error, got %v", err)
	}

	var stored model.Resource
	if err := db.Where("repo_id = ?", "repo-1").Take(&stored).Error; err != nil {
		t.Fatalf("failed to reload resource: %v", err)
	}
	if stored.Version != 2 {
		t.Fatalf("expected stored version 2, got %d", stored.Version)
	}
}

func newStorageTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:storage_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := Open(dsn, nil)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	return db
}
