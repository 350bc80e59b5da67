package service

import "errors"

var (
	ErrInvalidAPIKey      = errors.New("invalid API key")
	ErrRateLimited        = errors.New("rate limit exceeded")
	ErrIssueNotFound      = errors.New("issue not found")
	ErrAPIKeyNotFound     = errors.New("API key not found")
	ErrTitleRequired      = errors.New("title required")
	ErrStatusRequired     = errors.New("status is required")
	ErrAppNameRequired    = errors.New("app name is required")
	ErrInvalidEnvironment = errors.New("invalid environment")
	ErrDescriptionNeeded  = errors.New("plain text description is required")
)
