package apikey

import "errors"

var (
	ErrInvalidParams = errors.New("apikey: invalid parameters")
	ErrGenerate      = errors.New("apikey: failed to generate key")
)
