package drive

import (
	"context"

	"droply/internal/models"
)

// NodeRepository persists the node tree. Every read and write is scoped to an
// owner; a node owned by someone else behaves exactly like a missing one.
type NodeRepository interface {
	Insert(ctx context.Context, node *models.Node) error
	FindByID(ctx context.Context, id string, ownerID int64) (*models.Node, error)
	ListChildren(ctx context.Context, ownerID int64, parentID *string) ([]models.Node, error)
	// Descendants lists every node below id, parents before their children.
	Descendants(ctx context.Context, ownerID int64, id string) ([]models.Node, error)
	ListTrashed(ctx context.Context, ownerID int64) ([]models.Node, error)
	Update(ctx context.Context, id string, ownerID int64, patch models.NodePatch) (*models.Node, error)
	Delete(ctx context.Context, id string, ownerID int64) error
	Exists(ctx context.Context, id string) (bool, error)
}

// EventPublisher is notified after every committed change to a node.
type EventPublisher interface {
	Publish(ctx context.Context, ownerID int64, eventType string, payload any)
}

const (
	EventNodeCreated = "node_created"
	EventNodeUpdated = "node_updated"
	EventNodeDeleted = "node_deleted"
)
