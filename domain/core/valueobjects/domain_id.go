package valueobjects

import (
	"errors"

	"github.com/google/uuid"
)

// DomainID is a value object identifying a managed site domain.
// All pages of a site tree share the same DomainID.
type DomainID struct {
	value string
}

// NewDomainID creates a new random DomainID
func NewDomainID() DomainID {
	return DomainID{value: uuid.New().String()}
}

// NewDomainIDFromString creates a DomainID from an existing string
func NewDomainIDFromString(id string) (DomainID, error) {
	if id == "" {
		return DomainID{}, errors.New("domain ID cannot be empty")
	}
	if !isValidUUID(id) {
		return DomainID{}, errors.New("domain ID must be a valid UUID")
	}
	return DomainID{value: id}, nil
}

// String returns the string representation of the DomainID
func (id DomainID) String() string {
	return id.value
}

// Equals checks if two DomainIDs are equal
func (id DomainID) Equals(other DomainID) bool {
	return id.value == other.value
}

// IsZero checks if the DomainID is the zero value
func (id DomainID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id DomainID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.value + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *DomainID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.New("DomainID must be a string")
	}
	id.value = string(data[1 : len(data)-1])
	return nil
}
