package models

import "errors"

// Error kinds returned by runtime commands. Commands wrap them with context;
// match with errors.Is.
var (
	ErrInsufficientResources = errors.New("insufficient resources")
	ErrInvalidState          = errors.New("invalid state")
	ErrUnmetPrerequisite     = errors.New("unmet prerequisite")
	ErrUnknownIdentifier     = errors.New("unknown identifier")
)
