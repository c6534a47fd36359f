package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/aaravmahajanofficial/storefront/internal/utils/response"
	"github.com/stretchr/testify/require"
)

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()

	b, err := json.Marshal(v)
	require.NoError(t, err)

	return bytes.NewReader(b)
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) response.APIResponse {
	t.Helper()

	var resp response.APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	return resp
}

// decodeData re-marshals the generic envelope payload into dest.
func decodeData(t *testing.T, resp response.APIResponse, dest any) {
	t.Helper()

	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, dest))
}

func assertErrorCode(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) response.APIResponse {
	t.Helper()

	require.Equal(t, status, rr.Code)

	resp := decodeResponse(t, rr)
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	require.Equal(t, code, resp.Error.Code)

	return resp
}
