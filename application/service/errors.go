package service

import "errors"

// Service errors.
var (
	// ErrEmptyQuery indicates the query text was empty.
	ErrEmptyQuery = errors.New("query text is empty")

	// ErrMissingUser indicates no user identifier was provided.
	ErrMissingUser = errors.New("user id is required")

	// ErrExtraction indicates the intent extraction call failed.
	ErrExtraction = errors.New("intent extraction failed")
)
