package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// conditional update matched no row (e.g. promo cap reached)
	ErrConditionFailed = errors.New("condition failed")
	ErrDuplicate       = errors.New("duplicate")
)
