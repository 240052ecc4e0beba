package entity

import "errors"

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrImageNotFound     = errors.New("image not found")
	ErrRowOutOfRange     = errors.New("row index out of range")
	ErrUnknownField      = errors.New("unknown catalog field")
	ErrDelimiterInPath   = errors.New("image path contains the ';' separator")
	ErrUntrimmedPath     = errors.New("image path is blank or has surrounding spaces")
	ErrUnsupportedImage  = errors.New("only PNG and JPEG images are accepted")
	ErrNameCollision     = errors.New("a different file with this name already exists")
	ErrNoUploads         = errors.New("no files were uploaded")
	ErrNotConfigured     = errors.New("feature is not configured")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)
