// internal/app/system/csvutil/limits.go
package csvutil

import "errors"

// Upload size and row limits for CSV processing.
const (
	MaxUploadSize = 5 << 20 // 5 MB
	MaxRows       = 20000
)

// ErrTooManyRows rejects uploads exceeding MaxRows.
var ErrTooManyRows = errors.New("csv upload exceeds the row limit")
