package services

import "github.com/indiarose/sync-server/internal/server/models"

// CollectionNode is one node of the assembled collection tree. Children is
// non-empty only for categories.
type CollectionNode struct {
	Item     *models.IndiagramForDevice
	Children []*CollectionNode
}

// BuildCollectionTree reassembles the parent/child tree from a flat list of
// resolved items. Items whose parent is neither the root sentinel nor a
// known category are orphans and are dropped from the result; malformed
// data degrades instead of erroring. Input order is kept within each
// sibling list.
func BuildCollectionTree(items []*models.IndiagramForDevice) []*CollectionNode {
	byParent := make(map[int64][]*CollectionNode)
	categories := make(map[int64]*CollectionNode)

	for _, item := range items {
		node := &CollectionNode{Item: item}
		byParent[item.ParentID] = append(byParent[item.ParentID], node)
		if item.IsCategory {
			categories[item.ID] = node
		}
	}

	for parentID, children := range byParent {
		if parentID <= 0 {
			continue
		}
		if category, ok := categories[parentID]; ok {
			category.Children = children
		}
	}

	return byParent[models.RootParentID]
}
