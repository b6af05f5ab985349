// Package upload holds the image selection state used before an analysis:
// validation of the chosen file, the current selection and its preview.
package upload

import (
	"fmt"
	"slices"

	"github.com/PabloViniegra/how-are-u/internal/constants"
)

// ValidationError describes why a file cannot be uploaded.
type ValidationError struct {
	Field   string // "type" or "size"
	Message string // user-facing message
}

func (e ValidationError) Error() string {
	return e.Message
}

// Messages shown to the user when validation fails.
var (
	ErrInvalidType = ValidationError{
		Field:   "type",
		Message: "Tipo de archivo no válido. Solo se permiten JPG, PNG y WebP.",
	}
	ErrTooLarge = ValidationError{
		Field:   "size",
		Message: fmt.Sprintf("El archivo es muy grande. Máximo %dMB permitidos.", constants.MaxFileSize/1024/1024),
	}
)

// Validate checks a file against the accepted types and the size limit.
// The type check runs first, so a file failing both reports the type error.
func Validate(file *File) error {
	if !slices.Contains(constants.AcceptedImageTypes, file.Type) {
		return ErrInvalidType
	}
	if file.Size > constants.MaxFileSize {
		return ErrTooLarge
	}
	return nil
}
