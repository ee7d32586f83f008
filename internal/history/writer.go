package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/EnCirca/nomulus/internal/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingIDProvider = errors.New("id provider is required")
	// ErrNilRevisionIndex reports a stored resource whose revision index is
	// absent. Insertion then has no prior state to prune against; this is a
	// data integrity bug upstream and is never swallowed.
	ErrNilRevisionIndex = errors.New("history: nil revision index on existing resource")
)

// IDProvider issues identifiers for new commit log records.
type IDProvider interface {
	NewID() (string, error)
}

// WriterConfig describes the dependencies of a Writer.
type WriterConfig struct {
	IDProvider IDProvider
	Retention  time.Duration
	Logger     *zap.Logger
}

// Writer appends one commit log record per transaction and updates the
// mutated resource's revision index, pruned to the retention policy.
type Writer struct {
	idProvider IDProvider
	retention  time.Duration
	logger     *zap.Logger
}

const defaultRetention = 30 * 24 * time.Hour

// NewWriter constructs a Writer.
func NewWriter(cfg WriterConfig) (*Writer, error) {
	if cfg.IDProvider == nil {
		return nil, errMissingIDProvider
	}
	retention := cfg.Retention
	if retention <= 0 {
		retention = defaultRetention
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{idProvider: cfg.IDProvider, retention: retention, logger: logger}, nil
}

// WriteInput names the transaction metadata recorded alongside the resource.
type WriteInput struct {
	Resource            *model.Resource
	TransactionTime     time.Time
	Operation           string
	ClientID            string
	ClientTransactionID string
	ServerTransactionID string
}

// Write, called inside the flow's storage transaction with the already
// mutated resource, creates the commit log record and installs the pruned
// revision index on the resource. The caller persists the resource in the
// same transaction, so record, index, and resource state commit atomically.
func (w *Writer) Write(tx *gorm.DB, input WriteInput) (*CommitLogRecord, error) {
	if input.Resource == nil {
		return nil, errors.New("history: resource is required")
	}
	if input.Resource.Revisions == nil {
		return nil, fmt.Errorf("%w: %s", ErrNilRevisionIndex, input.Resource.RepoID)
	}

	recordID, err := w.idProvider.NewID()
	if err != nil {
		return nil, fmt.Errorf("history: generating record id: %w", err)
	}

	snapshot, err := json.Marshal(input.Resource)
	if err != nil {
		return nil, fmt.Errorf("history: encoding snapshot for %s: %w", input.Resource.RepoID, err)
	}

	record := &CommitLogRecord{
		RecordID:            recordID,
		RepoID:              input.Resource.RepoID,
		CommittedAtMillis:   input.TransactionTime.UnixMilli(),
		Operation:           input.Operation,
		ClientTransactionID: input.ClientTransactionID,
		ServerTransactionID: input.ServerTransactionID,
		ClientID:            input.ClientID,
		NewVersion:          input.Resource.Version,
		SnapshotJSON:        string(snapshot),
		Kind:                input.Resource.Kind,
	}
	if err := tx.Create(record).Error; err != nil {
		return nil, fmt.Errorf("history: inserting commit log record: %w", err)
	}

	pruned, err := PruneAndInsert(input.Resource.Revisions, input.TransactionTime, recordID, w.retention)
	if err != nil {
		return nil, err
	}
	input.Resource.Revisions = pruned

	w.logger.Debug("commit log record written",
		zap.String("repo_id", input.Resource.RepoID),
		zap.String("record_id", recordID),
		zap.Int("revision_entries", pruned.Len()))
	return record, nil
}

// PruneAndInsert returns a new revision index holding the latest entry at or
// before the retention threshold (the floor entry, possibly arbitrarily
// old), every entry between that floor and the start of the transaction
// day, and a new newest entry at the transaction time. At most one entry
// survives per UTC calendar day, so the result never exceeds
// retentionDays+2 entries.
func PruneAndInsert(revisions model.RevisionIndex, transactionTime time.Time, commitLogRef string, retention time.Duration) (model.RevisionIndex, error) {
	now := transactionTime.UTC()
	threshold := now.Add(-retention)
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	pruned := model.NewRevisionIndex()
	if floor, ok := revisions.Floor(threshold); ok && !floor.Time().After(threshold) {
		pruned = append(pruned, floor)
	}
	for _, entry := range revisions {
		if entry.Time().After(threshold) && entry.Time().Before(startOfToday) {
			pruned = append(pruned, entry)
		}
	}
	return pruned.Insert(now, commitLogRef)
}
