package models

import "errors"

var (
	ErrNotFound          = errors.New("record not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrSuggestionPending = errors.New("pending suggestion already exists")
	ErrStockSufficient   = errors.New("stock is above reorder threshold")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrBusy              = errors.New("resource is locked by another worker")
)
