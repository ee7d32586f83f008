package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ResourceKind discriminates the three registry object families.
type ResourceKind string

const (
	KindDomain  ResourceKind = "domain"
	KindContact ResourceKind = "contact"
	KindHost    ResourceKind = "host"
)

const maxIdentifierLength = 190

var (
	// ErrInvalidRepoID indicates a repository identifier is empty or exceeds storage bounds.
	ErrInvalidRepoID = errors.New("model: invalid repo id")
	// ErrInvalidClientID indicates a registrar identifier is empty or exceeds storage bounds.
	ErrInvalidClientID = errors.New("model: invalid client id")
	// ErrInvalidResourceName indicates a resource name is empty or exceeds storage bounds.
	ErrInvalidResourceName = errors.New("model: invalid resource name")
	// ErrInvalidResourceKind indicates an unrecognized kind discriminator.
	ErrInvalidResourceKind = errors.New("model: invalid resource kind")
)

// NewResourceKind validates raw input and returns a ResourceKind.
func NewResourceKind(rawInput string) (ResourceKind, error) {
	switch kind := ResourceKind(strings.TrimSpace(rawInput)); kind {
	case KindDomain, KindContact, KindHost:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidResourceKind, rawInput)
	}
}

// ClientID represents a validated registrar identifier.
type ClientID string

// NewClientID validates raw input and returns a ClientID.
func NewClientID(rawInput string) (ClientID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidClientID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidClientID, maxIdentifierLength)
	}
	return ClientID(trimmed), nil
}

// String returns the underlying string identifier.
func (id ClientID) String() string {
	return string(id)
}

// ResourceName represents the validated protocol-visible name of a resource:
// a fully qualified domain or host name, or a contact identifier.
type ResourceName string

// NewResourceName validates raw input and returns a ResourceName.
func NewResourceName(rawInput string) (ResourceName, error) {
	trimmed := strings.ToLower(strings.TrimSpace(rawInput))
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidResourceName)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidResourceName, maxIdentifierLength)
	}
	return ResourceName(trimmed), nil
}

// String returns the underlying string name.
func (n ResourceName) String() string {
	return string(n)
}

// Resource models one stored registry object. Mutations never happen in
// place across transaction boundaries: a flow loads a copy, derives the next
// version, and persists it with a version-checked write.
type Resource struct {
	RepoID                 string        `gorm:"column:repo_id;primaryKey;size:190;not null"`
	Kind                   ResourceKind  `gorm:"column:kind;size:16;not null;index:idx_resources_kind_name,priority:1;index:idx_resources_sponsor,priority:2"`
	Name                   string        `gorm:"column:name;size:190;not null;index:idx_resources_kind_name,priority:2"`
	TLD                    string        `gorm:"column:tld;size:64;not null;default:'';index:idx_resources_tld"`
	CurrentSponsorClientID string        `gorm:"column:sponsor_client_id;size:190;not null;index:idx_resources_sponsor,priority:1"`
	Statuses               StatusSet     `gorm:"column:statuses;type:text;not null"`
	Revisions              RevisionIndex `gorm:"column:revisions;type:text;not null"`
	KindDataJSON           string        `gorm:"column:kind_data_json;type:text;not null;default:''"`
	CreationTimeMillis     int64         `gorm:"column:created_at_ms;not null"`
	LastUpdateTimeMillis   int64         `gorm:"column:updated_at_ms;not null"`
	DeletionTimeMillis     int64         `gorm:"column:deleted_at_ms;not null;default:0"`
	Version                int64         `gorm:"column:version;not null;default:1"`
}

// TableName provides the explicit table binding for GORM.
func (Resource) TableName() string {
	return "resources"
}

// ExistsAt reports whether the resource is visible at instant t: already
// created, and not yet soft deleted. DeletionTimeMillis zero means active.
func (r *Resource) ExistsAt(t time.Time) bool {
	if r == nil {
		return false
	}
	millis := t.UnixMilli()
	if r.CreationTimeMillis > millis {
		return false
	}
	return r.DeletionTimeMillis == 0 || r.DeletionTimeMillis > millis
}

// Clone returns a deep copy safe to mutate without aliasing stored state.
func (r *Resource) Clone() *Resource {
	duplicate := *r
	duplicate.Statuses = NewStatusSet(r.Statuses.Values()...)
	duplicate.Revisions = make(RevisionIndex, len(r.Revisions))
	copy(duplicate.Revisions, r.Revisions)
	return &duplicate
}
