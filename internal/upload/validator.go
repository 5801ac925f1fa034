package upload

import (
	"fmt"
	"strings"

	"datachat/internal/errors"

	"github.com/gabriel-vasile/mimetype"
)

// SniffSize is how many leading bytes the validator needs for content
// detection. Callers hand over at most this much of the file.
const SniffSize = 2048

// allowedMIMETypes is the explicit allow-set for uploads. Detection runs on
// actual bytes, so a renamed executable fails here whatever its extension says.
var allowedMIMETypes = []string{
	"text/csv",
	"text/plain", // CSV files are often detected as plain text
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// Validator performs security-critical inspection of uploaded files before
// any parsing or persistence happens. It never mutates anything.
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a validator with the given size cap in bytes
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{maxFileSize: maxFileSize}
}

// Validate inspects the leading bytes, full size and declared filename of an
// upload. A nil return means the file is acceptable; otherwise the returned
// AppError (code VALIDATION_ERROR) names the rejection reason.
func (v *Validator) Validate(head []byte, fullSize int64, filename string) error {
	if len(head) == 0 {
		return errors.ValidationError("no file was uploaded")
	}

	if fullSize > v.maxFileSize {
		return errors.ValidationError(fmt.Sprintf(
			"file size %d exceeds the %d byte limit", fullSize, v.maxFileSize))
	}

	// Macro-enabled workbooks are blocked on name alone, independent of what
	// the content sniff says.
	if strings.HasSuffix(strings.ToLower(filename), ".xlsm") {
		return errors.ValidationError("macro-enabled Excel files (.xlsm) are not allowed")
	}

	if len(head) > SniffSize {
		head = head[:SniffSize]
	}

	detected := mimetype.Detect(head)
	for _, allowed := range allowedMIMETypes {
		if detected.Is(allowed) {
			return nil
		}
	}

	return errors.ValidationError(fmt.Sprintf(
		"invalid file type %s: only CSV and Excel files (.csv, .xlsx, .xls) are allowed",
		detected.String()))
}
