package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("name is required"), http.StatusBadRequest},
		{Unauthorized(""), http.StatusUnauthorized},
		{NotFound("project"), http.StatusNotFound},
		{Provisioning("sandbox create failed", errors.New("timeout")), http.StatusInternalServerError},
		{RemoteOperation("write failed", errors.New("status 404")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestWrappedErrorSurvivesChain(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("create project: %w", Provisioning("sandbox create failed", cause))

	assert.Equal(t, KindProvisioning, KindOf(err))
	assert.ErrorIs(t, err, cause)
}

func TestNotFoundIsIndistinguishable(t *testing.T) {
	absent := NotFound("project")
	notOwned := NotFound("project")
	assert.Equal(t, absent.Error(), notOwned.Error())
	assert.True(t, IsNotFound(absent))
}
