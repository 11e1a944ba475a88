package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeLookup(t *testing.T) {
	t.Run("finds code through wrapping", func(t *testing.T) {
		err := fmt.Errorf("update: %w", New(CodeInvalidState, "already sent"))
		assert.True(t, HasCode(err, CodeInvalidState))
		assert.Equal(t, CodeInvalidState, CodeOf(err))
		assert.Equal(t, "already sent", MessageOf(err))
	})

	t.Run("plain errors are internal", func(t *testing.T) {
		err := errors.New("boom")
		assert.False(t, HasCode(err, CodeConflict))
		assert.Equal(t, CodeInternal, CodeOf(err))
		assert.Equal(t, "boom", MessageOf(err))
	})

	t.Run("wrap keeps the cause reachable", func(t *testing.T) {
		cause := errors.New("lock wait")
		err := Wrap(cause, CodeInternal, "failed to update")
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "failed to update: lock wait", err.Error())
	})
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:   http.StatusBadRequest,
		CodeInvalidState: http.StatusBadRequest,
		CodeNotFound:     http.StatusNotFound,
		CodeConflict:     http.StatusConflict,
		CodeIntegrity:    http.StatusInternalServerError,
		CodeInternal:     http.StatusInternalServerError,
		CodeUnavailable:  http.StatusServiceUnavailable,
		CodeTooLarge:     http.StatusRequestEntityTooLarge,
	}
	for code, status := range cases {
		assert.Equal(t, status, ToHTTPStatus(code), "code %s", code)
	}
}
