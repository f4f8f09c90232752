// README: Error marks and HTTP status mapping tests.
package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusFromErr(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", WithError(stderrors.New("no rows")).Mark(ErrNotFound), http.StatusNotFound},
		{"validation", NewError("bad percentage").Mark(ErrValidation), http.StatusBadRequest},
		{"publish", NewError("channel closed").Mark(ErrPublish), http.StatusBadGateway},
		{"database", NewError("insert failed").Mark(ErrDatabase), http.StatusInternalServerError},
		{"unmarked", stderrors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatusFromErr(tc.err))
		})
	}
}

func TestHTTPStatusFromErr_MultipleMarksAreDeterministic(t *testing.T) {
	inner := NewError("rule not found").Mark(ErrNotFound)
	err := WithError(inner).Mark(ErrDependency)
	for i := 0; i < 50; i++ {
		assert.Equal(t, http.StatusNotFound, HTTPStatusFromErr(err))
	}

	dbAndPublish := WithError(NewError("write").Mark(ErrPublish)).Mark(ErrDatabase)
	for i := 0; i < 50; i++ {
		assert.Equal(t, http.StatusInternalServerError, HTTPStatusFromErr(dbAndPublish))
	}
}

func TestMarkKeepsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := WithError(cause).WithHint("try again later").Mark(ErrDependency)

	assert.True(t, Is(err, ErrDependency))
	assert.True(t, Is(err, cause))
	assert.False(t, IsNotFound(err))
	assert.Equal(t, "try again later", Hint(err))
}
