// Package service defines the backend-agnostic types and interface for task operations.
package service

import (
	"encoding/json"
	"slices"
)

// Item is a task record as the to-do service reports it.
type Item struct {
	ID        string   `json:"id"`
	ParentID  *string  `json:"parent_id"`
	SectionID *string  `json:"section_id"`
	ProjectID string   `json:"project_id"`
	Labels    []string `json:"labels"`
}

// HasLabel reports whether the item carries label.
func (i Item) HasLabel(label string) bool {
	return slices.Contains(i.Labels, label)
}

// LabelsWithout returns the item's labels with every occurrence of label
// removed. Order is preserved and the result is never nil.
func (i Item) LabelsWithout(label string) []string {
	out := make([]string, 0, len(i.Labels))
	for _, l := range i.Labels {
		if l != label {
			out = append(out, l)
		}
	}
	return out
}

// Event is an inbound webhook notification.
type Event struct {
	Name   string `json:"event_name,omitempty"`
	UserID string `json:"user_id,omitempty"`
	Data   Item   `json:"event_data"`
}

// ItemWithAncestors is the response of an item lookup: the item itself plus
// the chain of tasks above it.
type ItemWithAncestors struct {
	Ancestors []Item `json:"ancestors"`
	Item      Item   `json:"item"`
}

// CommandType is the type tag of a sync command.
type CommandType string

const (
	CommandItemMove       CommandType = "item_move"
	CommandItemUpdate     CommandType = "item_update"
	CommandItemUncomplete CommandType = "item_uncomplete"
)

// CommandArgs is implemented by the argument set of each command type.
type CommandArgs interface {
	CommandType() CommandType
}

// Command is one mutation in a sync batch.
type Command struct {
	Type CommandType `json:"type"`
	UUID string      `json:"uuid"`
	Args CommandArgs `json:"args"`
}

// NewCommand builds a command whose type is taken from args.
func NewCommand(uuid string, args CommandArgs) Command {
	return Command{Type: args.CommandType(), UUID: uuid, Args: args}
}

// ContainerKind names the slot that places an item in the hierarchy.
// The value doubles as the argument key on the wire.
type ContainerKind string

const (
	ContainerParent  ContainerKind = "parent_id"
	ContainerSection ContainerKind = "section_id"
	ContainerProject ContainerKind = "project_id"
)

// Container is a single parent, section or project reference.
type Container struct {
	Kind ContainerKind
	ID   string
}

// MoveArgs moves an item into exactly one container.
type MoveArgs struct {
	ID        string
	Container Container
}

func (MoveArgs) CommandType() CommandType { return CommandItemMove }

// MarshalJSON emits {"id": ..., "<kind>": ...}.
func (a MoveArgs) MarshalJSON() ([]byte, error) {
	m := map[string]string{"id": a.ID}
	m[string(a.Container.Kind)] = a.Container.ID
	return json.Marshal(m)
}

// UpdateArgs replaces an item's labels.
type UpdateArgs struct {
	ID     string   `json:"id"`
	Labels []string `json:"labels"`
}

func (UpdateArgs) CommandType() CommandType { return CommandItemUpdate }

// MarshalJSON always emits labels as an array, never null.
func (a UpdateArgs) MarshalJSON() ([]byte, error) {
	labels := a.Labels
	if labels == nil {
		labels = []string{}
	}
	type wire UpdateArgs
	return json.Marshal(wire{ID: a.ID, Labels: labels})
}

// UncompleteArgs reopens a completed item.
type UncompleteArgs struct {
	ID string `json:"id"`
}

func (UncompleteArgs) CommandType() CommandType { return CommandItemUncomplete }
