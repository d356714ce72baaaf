package models

import "time"

type Node struct {
	ID           string    `json:"id" example:"V1StGXR8_Z5jdHi6B-myT"`
	OwnerID      int64     `json:"owner_id" example:"1"`
	ParentID     *string   `json:"parent_id"`
	Name         string    `json:"name" example:"holiday.jpg"`
	IsFolder     bool      `json:"is_folder"`
	Size         int64     `json:"size" example:"204800"`
	ContentType  string    `json:"content_type" example:"image/jpeg"`
	ContentURL   *string   `json:"content_url"`
	ThumbnailURL *string   `json:"thumbnail_url"`
	StoragePath  string    `json:"-"`
	IsStarred    bool      `json:"is_starred"`
	IsTrash      bool      `json:"is_trash"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NodePatch describes a partial update. Nil fields are left untouched.
// ParentID is applied only when SetParent is true, so a node can be moved to the root.
type NodePatch struct {
	Name      *string
	ParentID  *string
	SetParent bool
	IsStarred *bool
	IsTrash   *bool
}

func (p NodePatch) Apply(n *Node) {
	if p.Name != nil {
		n.Name = *p.Name
	}
	if p.SetParent {
		n.ParentID = p.ParentID
	}
	if p.IsStarred != nil {
		n.IsStarred = *p.IsStarred
	}
	if p.IsTrash != nil {
		n.IsTrash = *p.IsTrash
	}
}

// Filter selects which nodes of a folder a listing returns.
type Filter string

const (
	FilterAll     Filter = "all"
	FilterStarred Filter = "starred"
	FilterTrash   Filter = "trash"
)

func ParseFilter(s string) (Filter, bool) {
	switch Filter(s) {
	case "", FilterAll:
		return FilterAll, true
	case FilterStarred:
		return FilterStarred, true
	case FilterTrash:
		return FilterTrash, true
	}
	return "", false
}

func (f Filter) Match(n *Node) bool {
	switch f {
	case FilterStarred:
		return n.IsStarred && !n.IsTrash
	case FilterTrash:
		return n.IsTrash
	default:
		return !n.IsTrash
	}
}
