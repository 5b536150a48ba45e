package token

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestTransferFrom tests that the client sends a correctly shaped
// transfer_from message to the gateway.
func TestTransferFrom(t *testing.T) {
	t.Parallel()

	var gotReq executeRequest
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, executePath, r.URL.Path)
			require.Equal(
				t, "application/json",
				r.Header.Get("Content-Type"),
			)

			err := json.NewDecoder(r.Body).Decode(&gotReq)
			require.NoError(t, err)

			w.WriteHeader(http.StatusOK)
		},
	))
	defer server.Close()

	client := NewClient(server.URL, StaticContract("cw20token"))
	err := client.TransferFrom(
		context.Background(), "buyer2", "seller", 125,
	)
	require.NoError(t, err)

	require.Equal(t, "cw20token", gotReq.Contract)
	require.NotNil(t, gotReq.Msg)
	require.NotNil(t, gotReq.Msg.TransferFrom)
	require.Equal(t, &transferFromMsg{
		Owner:     "buyer2",
		Recipient: "seller",
		Amount:    "125",
	}, gotReq.Msg.TransferFrom)
}

// TestTransferFromGatewayError tests that a failed contract call surfaces the
// gateway's error message.
func TestTransferFromGatewayError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write(
				[]byte(`{"error": "insufficient allowance"}`),
			)
		},
	))
	defer server.Close()

	client := NewClient(server.URL, StaticContract("cw20token"))
	err := client.TransferFrom(
		context.Background(), "buyer2", "seller", 125,
	)
	require.Error(t, err)
	require.Contains(t, err.Error(), "insufficient allowance")
	require.Contains(t, err.Error(), "400")
}
