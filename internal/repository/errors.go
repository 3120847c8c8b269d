package repository

import "errors"

// Common repository errors
var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicateBarcode = errors.New("barcode already registered")
	ErrCapacityExceeded = errors.New("bin capacity exceeded")
)
