// Package codex implements the generic content model of a world: a folder
// tree, per-folder attribute templates with inheritance, and entities that
// carry a materialized snapshot of the fields relevant to them.
//
// Reads return eagerly-fetched rows and every default read path filters out
// soft-deleted objects with an explicit WHERE clause; there is no query
// rewriting and no lazy proxy anywhere in this package.
package codex

import (
	"time"
)

// ValueType is the declared type of an attribute template and of every value
// instantiated from it.
type ValueType string

const (
	TypeShortText    ValueType = "short-text"
	TypeLongText     ValueType = "long-text"
	TypeNumber       ValueType = "number"
	TypeDate         ValueType = "date"
	TypeBoolean      ValueType = "boolean"
	TypeSingleSelect ValueType = "single-select"
	TypeEntityRef    ValueType = "entity-reference"
	TypeImage        ValueType = "image"
	TypeTable        ValueType = "table"
	TypeMapRef       ValueType = "map-reference"
	TypeTimelineRef  ValueType = "timeline-reference"
)

var valueTypes = map[ValueType]bool{
	TypeShortText:    true,
	TypeLongText:     true,
	TypeNumber:       true,
	TypeDate:         true,
	TypeBoolean:      true,
	TypeSingleSelect: true,
	TypeEntityRef:    true,
	TypeImage:        true,
	TypeTable:        true,
	TypeMapRef:       true,
	TypeTimelineRef:  true,
}

// Valid reports whether t is a known declared type.
func (t ValueType) Valid() bool {
	return valueTypes[t]
}

// Folder is a node in a world's content tree. The slug is assigned once at
// creation and never changes; renames touch only the display name.
type Folder struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	Kind      string     `json:"kind,omitempty"`
	ParentID  *int64     `json:"parent_id,omitempty"`
	Deleted   bool       `json:"deleted,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// AttributeTemplate is a typed custom-field declaration owned by one folder.
// Global templates apply to every entity in the world, not just the subtree
// under their owning folder.
type AttributeTemplate struct {
	ID           int64     `json:"id"`
	FolderID     int64     `json:"folder_id"`
	Name         string    `json:"name"`
	Type         ValueType `json:"type"`
	DefaultValue string    `json:"default_value,omitempty"`
	Options      []string  `json:"options,omitempty"` // single-select choices
	Required     bool      `json:"required,omitempty"`
	DisplayOrder int       `json:"display_order"`
	Global       bool      `json:"global,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// TemplateSpec is a template declaration before it is stored: the caller's
// requested shape for a new attribute template. Used both by CreateTemplate
// and for declaring a folder's initial templates atomically with the folder.
type TemplateSpec struct {
	Name         string    `json:"name"`
	Type         ValueType `json:"type"`
	DefaultValue string    `json:"default_value,omitempty"`
	Options      []string  `json:"options,omitempty"`
	Required     bool      `json:"required,omitempty"`
	Global       bool      `json:"global,omitempty"`
}

// AttributeValue is one instantiated field on one entity. It snapshots the
// template's declared type at creation time; the raw value is validated
// against that type on every write.
type AttributeValue struct {
	ID           int64      `json:"id"`
	EntityID     int64      `json:"entity_id"`
	TemplateID   int64      `json:"template_id"`
	TemplateName string     `json:"template_name,omitempty"`
	Type         ValueType  `json:"type"`
	Value        string     `json:"value"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// Entity is a content item (character, place, item, ...) living in a folder.
// SpecialKind tags entities with an extra role such as "map" or "timeline".
type Entity struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Slug        string           `json:"slug"`
	FolderID    int64            `json:"folder_id"`
	SpecialKind string           `json:"special_kind,omitempty"`
	Deleted     bool             `json:"deleted,omitempty"`
	DeletedAt   *time.Time       `json:"deleted_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	Values      []AttributeValue `json:"values,omitempty"`
}

// ValueUpdate is one requested change to an entity's attribute value.
type ValueUpdate struct {
	ValueID  int64  `json:"value_id"`
	NewValue string `json:"new_value"`
}
