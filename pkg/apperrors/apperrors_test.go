package apperrors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifiersSurviveWrapping(t *testing.T) {
	err := Authorizationf("user %s is not the admin", "u1")
	wrapped := fmt.Errorf("failed to add member: %w", err)

	assert.True(t, IsAuthorization(wrapped))
	assert.False(t, IsValidation(wrapped))
	assert.Contains(t, wrapped.Error(), "user u1 is not the admin")
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Authorizationf("denied"), http.StatusForbidden},
		{Validationf("bad input"), http.StatusBadRequest},
		{NotFoundf("missing"), http.StatusNotFound},
		{Transientf("store down"), http.StatusServiceUnavailable},
		{PartialWritef("flags not written"), http.StatusInternalServerError},
		{fmt.Errorf("plain failure"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, HTTPStatus(c.err), c.err.Error())
	}
}

func TestPartialWriteIsDistinct(t *testing.T) {
	err := PartialWritef("request %s approved but task %s not flagged", "r1", "t1")

	assert.True(t, IsPartialWrite(err))
	assert.False(t, IsTransient(err))
	assert.False(t, IsNotFound(err))
}
