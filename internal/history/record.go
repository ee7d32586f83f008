// Package history records one immutable commit log entry per committed
// transaction and maintains each resource's pruned revision index pointing
// at those entries, enabling point-in-time restoration by floor lookup.
package history

import "github.com/EnCirca/nomulus/internal/model"

// CommitLogRecord is the immutable per-transaction marker referenced by a
// resource's revision index. The snapshot content is opaque to the flow
// engine; restore tooling interprets it.
type CommitLogRecord struct {
	RecordID            string             `gorm:"column:record_id;primaryKey;size:190;not null"`
	RepoID              string             `gorm:"column:repo_id;size:190;not null;index:idx_commit_log_repo_time,priority:1"`
	CommittedAtMillis   int64              `gorm:"column:committed_at_ms;not null;index:idx_commit_log_repo_time,priority:2"`
	Operation           string             `gorm:"column:op;size:32;not null"`
	ClientTransactionID string             `gorm:"column:cl_trid;size:190;not null;default:''"`
	ServerTransactionID string             `gorm:"column:sv_trid;size:190;not null"`
	ClientID            string             `gorm:"column:client_id;size:190;not null"`
	NewVersion          int64              `gorm:"column:new_version;not null"`
	SnapshotJSON        string             `gorm:"column:snapshot_json;type:text;not null"`
	Kind                model.ResourceKind `gorm:"column:kind;size:16;not null"`
}

// TableName provides the explicit table binding for GORM.
func (CommitLogRecord) TableName() string {
	return "commit_log_records"
}
