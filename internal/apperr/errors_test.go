package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrapped(t *testing.T) {
	base := NotFound("order_not_found", "order not found")
	wrapped := fmt.Errorf("load order: %w", base)

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.Equal(t, "order_not_found", CodeOf(wrapped))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(wrapped))
	assert.True(t, Is(wrapped, KindNotFound))
}

func TestPlainErrorIsInternal(t *testing.T) {
	err := errors.New("boom")

	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "internal_error", CodeOf(err))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(err))
	assert.Equal(t, "internal server error", PublicMessage(err))
}

func TestHTTPStatusByKind(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{Validation("invalid_body", "bad"), http.StatusBadRequest},
		{Auth("unauthorized", "no"), http.StatusUnauthorized},
		{Conflict("not_retryable", "no"), http.StatusConflict},
		{Provider("provider_error", errors.New("502 from gelato")), http.StatusBadGateway},
		{Internal("db", errors.New("conn reset")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(CodeOf(tt.err), func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestPublicMessageHidesInternalCause(t *testing.T) {
	err := Internal("db", errors.New("password=secret"))
	assert.Equal(t, "internal server error", PublicMessage(err))

	perr := Provider("provider_error", errors.New("status 500"))
	assert.Equal(t, "status 500", PublicMessage(perr))
	assert.True(t, errors.Is(perr, perr.Err))
}
