package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
)

// SchemaVersion is the snapshot format written by this build.
const SchemaVersion = 1

var (
	// ErrMalformedSnapshot is returned when a persisted snapshot cannot be parsed.
	ErrMalformedSnapshot = errors.New("malformed snapshot")
	// ErrUnsupportedSchema is returned for snapshots written by a newer build.
	ErrUnsupportedSchema = errors.New("unsupported snapshot schema version")
)

type snapshotEnvelope struct {
	SchemaVersion int `json:"schemaVersion"`
	State
}

type snapshotPatch struct {
	SchemaVersion int `json:"schemaVersion"`
	Patch
}

// MarshalSnapshot serializes the full state with the current schema version.
// Nil lists are written as empty lists so a restore replaces them instead
// of keeping the initial value.
func MarshalSnapshot(s State) ([]byte, error) {
	data, err := json.Marshal(snapshotEnvelope{SchemaVersion: SchemaVersion, State: withEmptyLists(s)})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}

// UnmarshalSnapshot parses a persisted snapshot into a Patch holding only
// the fields present in data. Snapshots without a version field predate
// versioning and are read as version 1.
func UnmarshalSnapshot(data []byte) (Patch, error) {
	var sp snapshotPatch
	if err := json.Unmarshal(data, &sp); err != nil {
		return Patch{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	if sp.SchemaVersion > SchemaVersion {
		return Patch{}, fmt.Errorf("%w: %d", ErrUnsupportedSchema, sp.SchemaVersion)
	}
	return sp.Patch, nil
}

// DecodeSnapshot is UnmarshalSnapshot applied to an empty State.
func DecodeSnapshot(data []byte) (State, error) {
	p, err := UnmarshalSnapshot(data)
	if err != nil {
		return State{}, err
	}
	return p.overlay(State{}), nil
}

func withEmptyLists(s State) State {
	s.Groups = emptyIfNil(s.Groups)
	s.Expenses = emptyIfNil(s.Expenses)
	s.Insights = emptyIfNil(s.Insights)
	s.Reports = emptyIfNil(s.Reports)
	s.BudgetAlerts = emptyIfNil(s.BudgetAlerts)
	s.Settlements = emptyIfNil(s.Settlements)
	return s
}

func emptyIfNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
