package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRespondErrorStatuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
		detail string
	}{
		{Wrap(ErrValidation, "bad limit"), http.StatusBadRequest, "bad limit"},
		{Wrap(ErrUnprocessable, "Debits and credits do not balance"), http.StatusUnprocessableEntity, "Debits and credits do not balance"},
		{fmt.Errorf("rbac: %w", ErrForbidden), http.StatusForbidden, "rbac: forbidden"},
		{ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{ErrDuplicate, http.StatusConflict, "duplicate entry"},
		{ErrNotFound, http.StatusNotFound, "resource not found"},
		{errors.New("dial tcp: refused"), http.StatusInternalServerError, ""},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, tc.err)
		require.Equal(t, tc.status, rr.Code)
		require.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))

		var body ProblemDetail
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
		require.Equal(t, tc.status, body.Status)
		require.Equal(t, tc.detail, body.Detail)
	}
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var target struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","extra":1}`))
	err := DecodeJSON(req, &target)
	require.ErrorIs(t, err, ErrValidation)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a"}`))
	require.NoError(t, DecodeJSON(req, &target))
	require.Equal(t, "a", target.Name)
}
