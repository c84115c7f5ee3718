package errors

import "fmt"

// Recover converts a panic raised by a PDF library into an error stored in
// *errp. It must be deferred directly:
//
//	defer errors.Recover(&err, "failed to read PDF")
func Recover(errp *error, op string) {
	if r := recover(); r != nil {
		*errp = fmt.Errorf("%s: recovered from panic: %v", op, r)
	}
}
