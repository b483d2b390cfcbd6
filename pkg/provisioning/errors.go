package provisioning

import "errors"

var (
	ErrEmptyContent           = errors.New("content cannot be empty")
	ErrRenderFailed           = errors.New("failed to render QR code")
	ErrUnexpectedStatus       = errors.New("unexpected response status")
	ErrUnexpectedContentType  = errors.New("unexpected response content type")
	ErrImageTooLarge          = errors.New("image exceeds size limit")
	ErrInvalidEndpointPattern = errors.New("endpoint must contain the {data} placeholder")
)
