package errs

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOfUnwrapsWrappedError(t *testing.T) {
	base := errors.New("boom")
	wrapped := Validation("op", base)

	require.Equal(t, KindValidation, KindOf(wrapped))
	require.ErrorIs(t, wrapped, base)
}

func TestKindOfDefaultsToUnknown(t *testing.T) {
	require.Equal(t, KindUnknown, KindOf(errors.New("plain")))
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindConfigInvalid, http.StatusInternalServerError},
		{KindStoreUnavailable, http.StatusServiceUnavailable},
		{KindExternalService, http.StatusBadGateway},
		{KindTimeout, http.StatusGatewayTimeout},
		{KindValidation, http.StatusBadRequest},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindConflict, http.StatusOK},
		{KindNotFound, http.StatusNotFound},
		{KindUnknown, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, HTTPStatus(tc.kind))
	}
}

func TestErrorStringIncludesOpAndCause(t *testing.T) {
	err := NotFound("lookup", errors.New("missing"))
	require.Equal(t, "lookup: missing", err.Error())
}

func TestErrorStringWithoutCause(t *testing.T) {
	err := &Error{Kind: KindConflict, Op: "apply"}
	require.Equal(t, "apply", err.Error())
}
