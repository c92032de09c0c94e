// Package store abstracts where the document collection lives. The tree
// subsystem is source-agnostic: the remote REST client and the local
// sqlite workspace both serve the same Load/Apply contract.
package store

import (
	"context"

	"github.com/mossdocs/arbor/pkg/api"
	"github.com/mossdocs/arbor/pkg/model"
	"github.com/mossdocs/arbor/pkg/tree"
)

// Store loads the flat document collection and commits resolved reorder
// batches. Apply mirrors the server's semantics: updates land one at a
// time in batch order, the first failure aborts the remainder, and
// nothing is rolled back — the caller refetches via Load to reconcile.
type Store interface {
	Load(ctx context.Context) ([]model.Document, error)
	Apply(ctx context.Context, updates []tree.Update) error
}

// Remote serves a project's documents from the documentation server.
type Remote struct {
	client    *api.Client
	projectID string
}

// NewRemote creates a store over the given project.
func NewRemote(client *api.Client, projectID string) *Remote {
	return &Remote{client: client, projectID: projectID}
}

func (r *Remote) Load(ctx context.Context) ([]model.Document, error) {
	return r.client.ListDocuments(ctx, r.projectID)
}

func (r *Remote) Apply(ctx context.Context, updates []tree.Update) error {
	return r.client.ApplyDocumentUpdates(ctx, r.projectID, updates)
}

// RemoteTemplates serves a library category's templates through the same
// contract, so the viewer renders either hierarchy unchanged. Templates
// have no kind or archive state; they surface as plain markdown records.
type RemoteTemplates struct {
	client   *api.Client
	category string
}

// NewRemoteTemplates creates a store over the given library category
// (by name; an empty name means the whole library).
func NewRemoteTemplates(client *api.Client, category string) *RemoteTemplates {
	return &RemoteTemplates{client: client, category: category}
}

func (r *RemoteTemplates) Load(ctx context.Context) ([]model.Document, error) {
	tpls, err := r.client.ListTemplates(ctx, r.category)
	if err != nil {
		return nil, err
	}
	docs := make([]model.Document, len(tpls))
	for i, t := range tpls {
		docs[i] = model.Document{
			ID:       t.ID,
			Name:     t.Name,
			Kind:     model.KindMarkdown,
			Content:  t.Content,
			ParentID: t.ParentID,
			Order:    t.Order,
		}
	}
	return docs, nil
}

func (r *RemoteTemplates) Apply(ctx context.Context, updates []tree.Update) error {
	return r.client.ApplyTemplateUpdates(ctx, updates)
}
