package model

import "fmt"

// Scope partitions independent ordered sequences.
type Scope struct {
	OwnerID  string
	ParentID string
	Archived bool
}

// Key returns a stable string form of the scope, suitable as a lock or map key.
func (s Scope) Key() string {
	return fmt.Sprintf("%s/%s/%t", s.OwnerID, s.ParentID, s.Archived)
}

// Orderable is any row participating in a user-defined sequence.
type Orderable struct {
	ID        string
	SortOrder int64
}
