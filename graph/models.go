// Package graph is the relation overlay over a world's content. Objects from
// any domain opt in by activating a node; relations connect activated nodes
// and say how the underlying objects relate to each other.
package graph

import (
	"encoding/json"
	"time"
)

// Node marks one domain object as participating in the graph. One node per
// (ObjectID, ObjectKind) pair; activation is idempotent.
type Node struct {
	ID             int64     `json:"id"`
	ObjectID       string    `json:"object_id"`
	ObjectKind     string    `json:"object_kind"`
	Characteristic string    `json:"characteristic,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Relation is a typed directed edge between two activated nodes. The endpoint
// kinds are denormalized onto the edge so listings don't need node lookups.
type Relation struct {
	ID          string          `json:"id"`
	FromNodeID  int64           `json:"from_node_id"`
	ToNodeID    int64           `json:"to_node_id"`
	FromKind    string          `json:"from_kind"`
	ToKind      string          `json:"to_kind"`
	Type        string          `json:"type"`
	Description string          `json:"description,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
