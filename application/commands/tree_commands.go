package commands

import "errors"

// ReparentPageCommand moves a page under a new parent. An empty
// NewParentID makes the page a root.
type ReparentPageCommand struct {
	PageID      string  `json:"page_id" validate:"required,uuid"`
	NewParentID *string `json:"new_parent_id,omitempty" validate:"omitempty,uuid"`
}

// Validate validates the command
func (cmd ReparentPageCommand) Validate() error {
	if cmd.PageID == "" {
		return errors.New("page ID is required")
	}
	if cmd.NewParentID != nil && *cmd.NewParentID == "" {
		return errors.New("new parent ID cannot be an empty string")
	}
	return nil
}

// BulkReparentCommand applies many moves in one request
type BulkReparentCommand struct {
	DomainID string              `json:"domain_id" validate:"required,uuid"`
	Items    []BulkReparentEntry `json:"items" validate:"required,min=1,dive"`
}

// BulkReparentEntry is one move of a bulk request
type BulkReparentEntry struct {
	PageID      string  `json:"page_id" validate:"required,uuid"`
	NewParentID *string `json:"new_parent_id,omitempty" validate:"omitempty,uuid"`
}

// Validate validates the command
func (cmd BulkReparentCommand) Validate() error {
	if cmd.DomainID == "" {
		return errors.New("domain ID is required")
	}
	if len(cmd.Items) == 0 {
		return errors.New("at least one item is required")
	}
	for _, item := range cmd.Items {
		if item.PageID == "" {
			return errors.New("every item needs a page ID")
		}
	}
	return nil
}

// UpdatePagePositionsCommand pins pages to manual canvas positions or
// releases existing pins.
type UpdatePagePositionsCommand struct {
	DomainID  string          `json:"domain_id" validate:"required,uuid"`
	Positions []PositionEntry `json:"positions" validate:"required,min=1,dive"`
}

// PositionEntry pins one page, or releases its pin
type PositionEntry struct {
	PageID  string  `json:"page_id" validate:"required,uuid"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Release bool    `json:"release,omitempty"`
}

// Validate validates the command
func (cmd UpdatePagePositionsCommand) Validate() error {
	if cmd.DomainID == "" {
		return errors.New("domain ID is required")
	}
	if len(cmd.Positions) == 0 {
		return errors.New("at least one position is required")
	}
	for _, entry := range cmd.Positions {
		if entry.PageID == "" {
			return errors.New("every position needs a page ID")
		}
	}
	return nil
}
