package analyses

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrProcessing   = errors.New("processing failed")
)

const (
	ErrorCodeValidation      = "validation_error"
	ErrorCodeUnsupportedType = "unsupported_file_type"
	ErrorCodeTooLarge        = "file_too_large"
	ErrorCodeNotImplemented  = "not_implemented"
	ErrorCodeProcessing      = "processing_error"
)
