package secretstore

import (
	"fmt"

	"github.com/juju/errors"
)

// NotFound returns an error of kind errors.NotFound for the given secret
func NotFound(cause error, id string) error {
	if cause == nil {
		return errors.NotFoundf("secret %q", id)
	}
	return errors.NewNotFound(cause, fmt.Sprintf("secret %q not found", id))
}

// AlreadyExists returns an error of kind errors.AlreadyExists for the given secret
func AlreadyExists(cause error, id string) error {
	if cause == nil {
		return errors.AlreadyExistsf("secret %q", id)
	}
	return errors.NewAlreadyExists(cause, fmt.Sprintf("secret %q already exists", id))
}

// IsNotFound reports whether err means the secret or version does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, errors.NotFound)
}

// IsAlreadyExists reports whether err means the secret already exists
func IsAlreadyExists(err error) bool {
	return errors.Is(err, errors.AlreadyExists)
}

// Unnull returns v, or an error carrying msg when v is nil
func Unnull[T any](v *T, msg string) (*T, error) {
	if v == nil {
		return nil, errors.New(msg)
	}
	return v, nil
}
