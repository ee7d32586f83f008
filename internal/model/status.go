package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// StatusValue is a flag on a resource restricting which operations may be
// performed against it. Client-settable statuses may be added or removed by
// the sponsoring registrar; server-settable statuses only by the registry.
type StatusValue string

const (
	StatusClientDeleteProhibited   StatusValue = "clientDeleteProhibited"
	StatusClientTransferProhibited StatusValue = "clientTransferProhibited"
	StatusClientUpdateProhibited   StatusValue = "clientUpdateProhibited"
	StatusClientHold               StatusValue = "clientHold"
	StatusServerDeleteProhibited   StatusValue = "serverDeleteProhibited"
	StatusServerTransferProhibited StatusValue = "serverTransferProhibited"
	StatusServerUpdateProhibited   StatusValue = "serverUpdateProhibited"
	StatusServerHold               StatusValue = "serverHold"
	StatusPendingDelete            StatusValue = "pendingDelete"
	StatusPendingTransfer          StatusValue = "pendingTransfer"
	StatusLinked                   StatusValue = "linked"
	StatusOK                       StatusValue = "ok"
)

// ErrUnknownStatusValue indicates a status string outside the known set.
var ErrUnknownStatusValue = errors.New("model: unknown status value")

var knownStatusValues = map[StatusValue]bool{
	StatusClientDeleteProhibited:   true,
	StatusClientTransferProhibited: true,
	StatusClientUpdateProhibited:   true,
	StatusClientHold:               true,
	StatusServerDeleteProhibited:   true,
	StatusServerTransferProhibited: true,
	StatusServerUpdateProhibited:   true,
	StatusServerHold:               true,
	StatusPendingDelete:            true,
	StatusPendingTransfer:          true,
	StatusLinked:                   true,
	StatusOK:                       true,
}

var clientSettableStatusValues = map[StatusValue]bool{
	StatusClientDeleteProhibited:   true,
	StatusClientTransferProhibited: true,
	StatusClientUpdateProhibited:   true,
	StatusClientHold:               true,
}

// NewStatusValue validates raw input and returns a StatusValue.
func NewStatusValue(rawInput string) (StatusValue, error) {
	value := StatusValue(rawInput)
	if !knownStatusValues[value] {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatusValue, rawInput)
	}
	return value, nil
}

// ClientSettable reports whether the sponsoring registrar may add or remove
// this status itself.
func (v StatusValue) ClientSettable() bool {
	return clientSettableStatusValues[v]
}

// String returns the wire name of the status.
func (v StatusValue) String() string {
	return string(v)
}

// StatusSet is the set of status values currently present on a resource.
// It persists as a JSON array column and compares by membership only.
type StatusSet map[StatusValue]bool

// NewStatusSet builds a set from the provided values.
func NewStatusSet(values ...StatusValue) StatusSet {
	set := make(StatusSet, len(values))
	for _, value := range values {
		set[value] = true
	}
	return set
}

// Has reports membership.
func (s StatusSet) Has(value StatusValue) bool {
	return s[value]
}

// Union returns a new set containing every value of s plus the additions.
func (s StatusSet) Union(additions StatusSet) StatusSet {
	merged := make(StatusSet, len(s)+len(additions))
	for value := range s {
		merged[value] = true
	}
	for value := range additions {
		merged[value] = true
	}
	return merged
}

// Difference returns a new set containing every value of s not in removals.
func (s StatusSet) Difference(removals StatusSet) StatusSet {
	remaining := make(StatusSet, len(s))
	for value := range s {
		if !removals[value] {
			remaining[value] = true
		}
	}
	return remaining
}

// Values returns the members sorted by wire name.
func (s StatusSet) Values() []StatusValue {
	values := make([]StatusValue, 0, len(s))
	for value := range s {
		values = append(values, value)
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	return values
}

// Value implements driver.Valuer; serializes as a sorted JSON array.
func (s StatusSet) Value() (driver.Value, error) {
	encoded, err := json.Marshal(s.Values())
	if err != nil {
		return nil, err
	}
	return string(encoded), nil
}

// Scan implements sql.Scanner.
func (s *StatusSet) Scan(src any) error {
	raw, err := jsonColumnBytes(src)
	if err != nil {
		return fmt.Errorf("model: scanning status set: %w", err)
	}
	if len(raw) == 0 {
		*s = StatusSet{}
		return nil
	}
	var values []StatusValue
	if err := json.Unmarshal(raw, &values); err != nil {
		return fmt.Errorf("model: scanning status set: %w", err)
	}
	*s = NewStatusSet(values...)
	return nil
}

func jsonColumnBytes(src any) ([]byte, error) {
	switch typed := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return typed, nil
	case string:
		return []byte(typed), nil
	default:
		return nil, fmt.Errorf("unsupported column type %T", src)
	}
}
