package backend

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidPayload marks a 2xx reply whose shape failed validation.
var ErrInvalidPayload = errors.New("backend: invalid payload")

var payloadValidator = validator.New()

// DecodeValid decodes the reply into a struct pointer and checks its validate tags.
func DecodeValid(resp *Response, dest any) error {
	if err := resp.Decode(dest); err != nil {
		return err
	}
	if err := payloadValidator.Struct(dest); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}
