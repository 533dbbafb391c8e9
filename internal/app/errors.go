package app

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrDocumentNotFound = errors.New("document not found")
	ErrMarkupNotFound   = errors.New("markup not found")
	ErrMarkupExists     = errors.New("markup already exists")
	ErrInvalidMarkup    = errors.New("invalid markup")
	ErrUploadFailed     = errors.New("upload failed")
)
