package errtax

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAndError(t *testing.T) {
	err := New(Blocked, "list page looks like an anti-bot challenge")
	assert.Equal(t, Blocked, err.Kind)
	assert.Contains(t, err.Error(), "BLOCKED")
	assert.Contains(t, err.Error(), "list page looks like an anti-bot challenge")
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(Timeout, "fastpath: transport timeout", cause)
	assert.Equal(t, cause, err.Unwrap())
	assert.Contains(t, err.Error(), "connection reset")
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{InvalidInput, http.StatusBadRequest},
		{NotFound, http.StatusServiceUnavailable},
		{Timeout, http.StatusServiceUnavailable},
		{Blocked, http.StatusServiceUnavailable},
		{CacheError, http.StatusInternalServerError},
		{Internal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		err := New(tc.kind, "x")
		assert.Equal(t, tc.want, err.HTTPStatus())
	}
}

func TestAs(t *testing.T) {
	var err error = New(Parse, "bad html")
	ee, ok := As(err)
	assert.True(t, ok)
	assert.Equal(t, Parse, ee.Kind)

	_, ok = As(errors.New("opaque failure"))
	assert.False(t, ok)
}
