package domain

import "errors"

var (
	ErrStyleNotFound     = errors.New("style not found")
	ErrEmptyCustomPrompt = errors.New("custom prompt is empty")
	ErrMissingCredential = errors.New("api credential missing")
	ErrEmptyResult       = errors.New("provider returned no images")
	ErrUnsupportedModel  = errors.New("unsupported model")
	ErrUnauthorized      = errors.New("unauthorized")
)
