package interfaces

import "github.com/m-mizutani/goerr/v2"

// Errors shared by every repository backend
var (
	ErrNotFound = goerr.New("not found")
	ErrConflict = goerr.New("version conflict")
)
