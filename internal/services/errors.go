package services

import "errors"

var (
	ErrListingNotFound    = errors.New("listing not found")
	ErrInvalidUpload      = errors.New("invalid upload")
	ErrPayloadTooLarge    = errors.New("payload too large")
	ErrFolderForbidden    = errors.New("folder not allowed for this user")
	ErrStorageUnavailable = errors.New("storage not configured")
	ErrUploadFailed       = errors.New("upload failed")
)
