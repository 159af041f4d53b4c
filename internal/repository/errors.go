package repository

import "errors"

var (
	ErrSheetNotFound   = errors.New("sheet not found")
	ErrTabNotFound     = errors.New("tab not found")
	ErrInvalidSheetID  = errors.New("invalid sheet id")
	ErrInvalidTabName  = errors.New("invalid tab name")
	ErrSourceReadFails = errors.New("source read failed")
)
