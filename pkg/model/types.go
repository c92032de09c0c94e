package model

import (
	"fmt"
	"time"

	"github.com/mossdocs/arbor/pkg/tree"
)

// Kind discriminates how a document body is rendered.
type Kind string

const (
	KindMarkdown   Kind = "markdown"
	KindWhiteboard Kind = "whiteboard"
)

// IsValid returns true if the kind is a recognized value.
func (k Kind) IsValid() bool {
	switch k {
	case KindMarkdown, KindWhiteboard:
		return true
	}
	return false
}

// Document is a single entry in a project's document tree. ParentID of nil
// means the document sits at the root level of its project.
type Document struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ProjectID string    `json:"project_id"`
	Kind      Kind      `json:"type"`
	Content   string    `json:"content,omitempty"`
	ParentID  *string   `json:"parent_id"`
	Order     int       `json:"order"`
	Archived  *bool     `json:"archived,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone creates a deep copy of the document.
func (d Document) Clone() Document {
	clone := d
	if d.ParentID != nil {
		v := *d.ParentID
		clone.ParentID = &v
	}
	if d.Archived != nil {
		v := *d.Archived
		clone.Archived = &v
	}
	return clone
}

// Validate checks if the document data is logically valid.
func (d *Document) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("document ID cannot be empty")
	}
	if d.Name == "" {
		return fmt.Errorf("document name cannot be empty")
	}
	if !d.Kind.IsValid() {
		return fmt.Errorf("invalid document kind: %s", d.Kind)
	}
	if d.ParentID != nil && *d.ParentID == d.ID {
		return fmt.Errorf("document %s cannot be its own parent", d.ID)
	}
	if !d.UpdatedAt.IsZero() && !d.CreatedAt.IsZero() && d.UpdatedAt.Before(d.CreatedAt) {
		return fmt.Errorf("updated_at (%v) cannot be before created_at (%v)", d.UpdatedAt, d.CreatedAt)
	}
	return nil
}

// IsArchived reports whether the document is archived, directly or
// inherited from an ancestor. byID is the full collection keyed by id;
// dangling parent references end the walk.
func (d *Document) IsArchived(byID map[string]*Document) bool {
	seen := make(map[string]bool)
	cur := d
	for cur != nil && !seen[cur.ID] {
		seen[cur.ID] = true
		if cur.Archived != nil {
			return *cur.Archived
		}
		if cur.ParentID == nil {
			return false
		}
		cur = byID[*cur.ParentID]
	}
	return false
}

// TreeItem converts the document into the flat record shape the tree
// subsystem operates on. Archived documents stay visible but are not
// interactive.
func (d *Document) TreeItem(byID map[string]*Document) tree.Item {
	archived := d.IsArchived(byID)
	return tree.Item{
		ID:        d.ID,
		Name:      d.Name,
		ParentID:  d.ParentID,
		Order:     d.Order,
		Kind:      string(d.Kind),
		Draggable: !archived,
		Disabled:  archived,
	}
}

// Template is a single entry in a category's template tree. It shares the
// document's hierarchy mechanics but lives in the library, scoped to a
// category instead of a project.
type Template struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	CategoryID string  `json:"category_id"`
	Content    string  `json:"content,omitempty"`
	ParentID   *string `json:"parent_id"`
	Order      int     `json:"order"`
}

// Validate checks if the template data is logically valid.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("template ID cannot be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("template name cannot be empty")
	}
	if t.ParentID != nil && *t.ParentID == t.ID {
		return fmt.Errorf("template %s cannot be its own parent", t.ID)
	}
	return nil
}

// TreeItem converts the template into the tree subsystem's flat record.
// Templates are always markdown and always draggable.
func (t *Template) TreeItem() tree.Item {
	return tree.Item{
		ID:        t.ID,
		Name:      t.Name,
		ParentID:  t.ParentID,
		Order:     t.Order,
		Kind:      string(KindMarkdown),
		Draggable: true,
	}
}

// Project groups documents; owned by a team.
type Project struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	TeamID string `json:"team_id"`
}

// DocumentsByID builds a lookup map over the collection. The returned
// pointers alias the slice elements.
func DocumentsByID(docs []Document) map[string]*Document {
	byID := make(map[string]*Document, len(docs))
	for i := range docs {
		byID[docs[i].ID] = &docs[i]
	}
	return byID
}

// TreeItems converts a document collection into tree items, preserving
// slice order.
func TreeItems(docs []Document) []tree.Item {
	byID := DocumentsByID(docs)
	items := make([]tree.Item, len(docs))
	for i := range docs {
		items[i] = docs[i].TreeItem(byID)
	}
	return items
}
