package shared

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors converts validator errors into field → message pairs. Keys are
// struct namespaces without the root type ("Items[0].AccountOid"). messages
// is looked up by "Field.tag" first, then "Field"; the validator text is the
// fallback. Errors that are not validation errors yield a "general" entry.
func FieldErrors(err error, messages map[string]string) map[string]string {
	if err == nil {
		return nil
	}
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["general"] = err.Error()
		return out
	}
	for _, fe := range verrs {
		key := fe.StructNamespace()
		if i := strings.IndexByte(key, '.'); i >= 0 {
			key = key[i+1:]
		}
		if _, exists := out[key]; exists {
			continue
		}
		switch {
		case messages[fe.StructField()+"."+fe.Tag()] != "":
			out[key] = messages[fe.StructField()+"."+fe.Tag()]
		case messages[fe.StructField()] != "":
			out[key] = messages[fe.StructField()]
		default:
			out[key] = fe.Error()
		}
	}
	return out
}

// ValidationError carries per-field messages. It matches ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error()
}

// Is lets errors.Is(err, ErrValidation) succeed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
