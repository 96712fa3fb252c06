package data

import (
	"encoding/json"
	"net/url"
	"strconv"
)

// EmployeeSearch describes the filters that can be applied when reading
// employees; an empty search matches every employee
type EmployeeSearch struct {
	FirstNameContaining *string `json:"first_name_containing,omitempty"`
	Active              *bool   `json:"active,omitempty"`
}

// ToKey returns a key unique to the search criteria
func (e *EmployeeSearch) ToKey() (string, error) {
	bytes, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return "search_" + string(bytes), nil
}

func (e *EmployeeSearch) ToParams() url.Values {
	params := make(url.Values)
	if e.FirstNameContaining != nil {
		params.Set(ParameterFirstNameFilter, *e.FirstNameContaining)
	}
	return params
}

// FromParams populates the search from query parameters, an absent or
// empty first name filter doesn't filter at all
func (e *EmployeeSearch) FromParams(params url.Values) {
	if firstNameFilter := params.Get(ParameterFirstNameFilter); firstNameFilter != "" {
		e.FirstNameContaining = &firstNameFilter
	}
}

func (e *EmployeeSearch) String() string {
	switch {
	default:
		return "all"
	case e.Active != nil:
		return "active_" + strconv.FormatBool(*e.Active)
	case e.FirstNameContaining != nil:
		return "first_name_containing_" + *e.FirstNameContaining
	}
}
