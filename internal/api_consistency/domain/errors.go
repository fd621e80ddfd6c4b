package domain

import "errors"

var (
	ErrReportNotFound = errors.New("report not found")
	ErrInvalidFacts   = errors.New("invalid facts document")
)
