package response

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"research-assistant/internal/app"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: bad", app.ErrValidation), http.StatusBadRequest},
		{app.ErrUnsupportedFormat, http.StatusBadRequest},
		{app.ErrEmptyDocument, http.StatusBadRequest},
		{fmt.Errorf("document 3: %w", app.ErrNotFound), http.StatusNotFound},
		{app.ErrDocumentNotReady, http.StatusConflict},
		{app.ErrConstraintViolation, http.StatusConflict},
		{app.ErrInvalidTransition, http.StatusConflict},
		{app.ErrIndexNotFound, http.StatusConflict},
		{app.ErrInsufficientDocuments, http.StatusUnprocessableEntity},
		{fmt.Errorf("embed: %w", app.ErrUpstreamUnavailable), http.StatusBadGateway},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got, _ := Status(tc.err); got != tc.want {
			t.Fatalf("Status(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
