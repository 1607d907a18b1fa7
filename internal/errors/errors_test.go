package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := map[Code]int{
		CodeInvalidArgument:   http.StatusBadRequest,
		CodeNotFound:          http.StatusNotFound,
		CodeAlreadyExists:     http.StatusConflict,
		CodePermissionDenied:  http.StatusForbidden,
		CodeResourceExhausted: http.StatusTooManyRequests,
		CodeUnauthenticated:   http.StatusUnauthorized,
		CodeInternal:          http.StatusInternalServerError,
		Code(9999):            http.StatusInternalServerError,
	}

	for code, want := range tests {
		assert.Equal(t, want, New(code).HTTPStatusCode())
	}
}

func TestConvert(t *testing.T) {
	t.Run("passes through typed errors", func(t *testing.T) {
		in := New(CodeNotFound, WithMessagef("quiz not found"))
		out := Convert(fmt.Errorf("get quiz: %w", in))

		assert.Equal(t, CodeNotFound, out.Code)
		assert.Equal(t, "quiz not found", out.Message)
	})

	t.Run("wraps plain errors as internal", func(t *testing.T) {
		cause := stderrors.New("connection refused")
		out := Convert(cause)

		assert.Equal(t, CodeInternal, out.Code)
		assert.ErrorIs(t, out, cause)
	})
}

func TestValidation(t *testing.T) {
	e := Validation(map[string]string{
		"title":    "This field is required.",
		"password": "Must be at least 8 characters.",
	})

	assert.Equal(t, CodeInvalidArgument, e.Code)
	assert.Equal(t, http.StatusBadRequest, e.HTTPStatusCode())
	assert.Equal(t, "This field is required.", e.Fields["title"])
	assert.Len(t, e.Fields, 2)
}

func TestWithField(t *testing.T) {
	e := New(CodeInvalidArgument,
		WithField("question_text", "This field is required."),
		WithField("question_type", "Invalid question type."),
	)

	assert.Len(t, e.Fields, 2)
	assert.Contains(t, e.Error(), "question_text")
}
