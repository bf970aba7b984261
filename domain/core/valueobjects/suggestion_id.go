package valueobjects

import (
	"errors"

	"github.com/google/uuid"
)

// SuggestionID is a value object identifying an applied SEO suggestion
type SuggestionID struct {
	value string
}

// NewSuggestionID creates a new random SuggestionID
func NewSuggestionID() SuggestionID {
	return SuggestionID{value: uuid.New().String()}
}

// NewSuggestionIDFromString creates a SuggestionID from an existing string
func NewSuggestionIDFromString(id string) (SuggestionID, error) {
	if id == "" {
		return SuggestionID{}, errors.New("suggestion ID cannot be empty")
	}
	if !isValidUUID(id) {
		return SuggestionID{}, errors.New("suggestion ID must be a valid UUID")
	}
	return SuggestionID{value: id}, nil
}

// String returns the string representation of the SuggestionID
func (id SuggestionID) String() string {
	return id.value
}

// Equals checks if two SuggestionIDs are equal
func (id SuggestionID) Equals(other SuggestionID) bool {
	return id.value == other.value
}

// IsZero checks if the SuggestionID is the zero value
func (id SuggestionID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id SuggestionID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.value + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *SuggestionID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.New("SuggestionID must be a string")
	}
	id.value = string(data[1 : len(data)-1])
	return nil
}
