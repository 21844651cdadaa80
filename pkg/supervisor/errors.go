package supervisor

import "errors"

// joinErrors wraps errors.Join, returning nil for an empty slice so
// callers need not special-case the no-error path.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
