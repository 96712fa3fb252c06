package data

import "errors"

var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrMutationDisabled = errors.New("mutation disabled")
)
