package queries

import "errors"

// GetTreeLayoutQuery requests the computed canvas layout for a site tree
type GetTreeLayoutQuery struct {
	DomainID string
}

// Validate validates the GetTreeLayoutQuery
func (q GetTreeLayoutQuery) Validate() error {
	if q.DomainID == "" {
		return errors.New("domain ID is required")
	}
	return nil
}
