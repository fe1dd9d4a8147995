package dto

import "time"

const (
	ChangeGroupAdded     = "group_added"
	ChangeGroupRenamed   = "group_renamed"
	ChangeGroupDeleted   = "group_deleted"
	ChangeGroupsReplaced = "groups_replaced"
	ChangeItemAdded      = "item_added"
	ChangeItemRenamed    = "item_renamed"
	ChangeItemDeleted    = "item_deleted"
	ChangeItemsReplaced  = "items_replaced"
	ChangeMessageAdded   = "message_added"
	ChangeHistoryLoaded  = "history_loaded"
)

// ChangeEvent is published after every successful store mutation.
type ChangeEvent struct {
	Kind       string    `json:"kind"`
	GroupId    string    `json:"group_id,omitempty"`
	ItemId     string    `json:"item_id,omitempty"`
	ItemKind   string    `json:"item_kind,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
