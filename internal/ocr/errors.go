package ocr

import "errors"

// ErrTimeout means the wall-clock polling budget was exhausted before the
// vendor reached a terminal status.
var ErrTimeout = errors.New("ocr polling timed out")
