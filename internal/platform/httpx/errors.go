package httpx

import (
	"errors"
	"net/http"

	"github.com/novaq/novaq-dashboard/internal/backend"
	"github.com/novaq/novaq-dashboard/internal/shared"
)

// ErrBadRequest marks an unreadable request body.
var ErrBadRequest = errors.New("bad request")

// GenericMessage is shown for unexpected failures.
const GenericMessage = "Алдаа гарлаа"

// RespondError maps domain and backend errors to the JSON error envelope.
func RespondError(w http.ResponseWriter, err error) {
	var be *backend.Error
	switch {
	case errors.As(err, &be):
		Error(w, backend.StatusOf(err), backend.MessageOf(err, GenericMessage))
	case errors.Is(err, ErrBadRequest):
		Error(w, http.StatusBadRequest, "Хүсэлт буруу байна")
	case errors.Is(err, shared.ErrValidation):
		Error(w, http.StatusBadRequest, "Validation failed")
	case errors.Is(err, shared.ErrUnauthorized):
		Error(w, http.StatusUnauthorized, "UNAUTHORIZED")
	case errors.Is(err, shared.ErrNotFound):
		Error(w, http.StatusNotFound, "Мэдээлэл олдсонгүй")
	default:
		Error(w, http.StatusInternalServerError, GenericMessage)
	}
}
