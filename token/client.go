package token

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/celiakwan/cw20-bid/auction"
)

const (
	// defaultRequestTimeout is the timeout applied to gateway requests
	// that don't carry their own deadline already.
	defaultRequestTimeout = 30 * time.Second

	// executePath is the gateway endpoint that relays an execute message
	// to the token contract.
	executePath = "/v1/execute"

	// maxErrorBodySize caps how much of an error response we read back.
	maxErrorBodySize = 4096
)

// executeRequest is the envelope the gateway expects for a contract call.
type executeRequest struct {
	// Contract is the reference of the token contract to invoke.
	Contract string `json:"contract"`

	// Msg is the cw20 execute message itself.
	Msg *executeMsg `json:"msg"`
}

// executeMsg is the tagged-variant cw20 execute message. Exactly one field is
// set per request.
type executeMsg struct {
	TransferFrom *transferFromMsg `json:"transfer_from,omitempty"`
}

// transferFromMsg moves tokens between two accounts using a previously
// granted allowance. Amounts travel as base-10 strings on the wire.
type transferFromMsg struct {
	Owner     string `json:"owner"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
}

// errorResponse is the body the gateway returns on a failed contract call.
type errorResponse struct {
	Error string `json:"error"`
}

// ContractResolver returns the reference of the token contract to invoke.
// The reference is only known once the auction is configured, so the client
// resolves it per call instead of fixing it at construction time.
type ContractResolver func() (auction.Identity, error)

// StaticContract returns a resolver that always yields the given reference.
func StaticContract(contract auction.Identity) ContractResolver {
	return func() (auction.Identity, error) {
		return contract, nil
	}
}

// Client talks to a cw20 token contract through an HTTP gateway. It only
// implements the single allowance transfer the settlement flow needs.
type Client struct {
	gatewayURL      string
	resolveContract ContractResolver

	client *http.Client
}

// NewClient creates a client for the token contract yielded by the given
// resolver, reachable through the gateway at gatewayURL.
func NewClient(gatewayURL string, resolveContract ContractResolver) *Client {
	return &Client{
		gatewayURL:      gatewayURL,
		resolveContract: resolveContract,
		client: &http.Client{
			Timeout: defaultRequestTimeout,
		},
	}
}

// TransferFrom moves amount units from owner to recipient using the allowance
// the owner granted this auction beforehand.
//
// NOTE: This is part of the auction.TokenClient interface.
func (c *Client) TransferFrom(ctx context.Context, owner,
	recipient auction.Identity, amount auction.Amount) error {

	contract, err := c.resolveContract()
	if err != nil {
		return fmt.Errorf("unable to resolve token contract: %w", err)
	}

	req := &executeRequest{
		Contract: string(contract),
		Msg: &executeMsg{
			TransferFrom: &transferFromMsg{
				Owner:     string(owner),
				Recipient: string(recipient),
				Amount:    amount.String(),
			},
		},
	}

	log.Debugf("Requesting transfer of %v from %v to %v", amount, owner,
		recipient)

	return c.post(ctx, executePath, req)
}

// post sends a JSON request to the gateway and interprets any non-success
// status as an error.
func (c *Client) post(ctx context.Context, path string,
	body interface{}) error {

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return fmt.Errorf("unable to encode request: %v", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.gatewayURL+path, &buf,
	)
	if err != nil {
		return fmt.Errorf("unable to create request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("gateway request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned status %d: %v",
			resp.StatusCode, readErrorBody(resp.Body))
	}

	return nil
}

// readErrorBody extracts the error message from a failed gateway response,
// falling back to the raw body if it isn't the expected JSON shape.
func readErrorBody(body io.Reader) string {
	rawBody, err := io.ReadAll(io.LimitReader(body, maxErrorBodySize))
	if err != nil {
		return "unreadable response body"
	}

	var errResp errorResponse
	if err := json.Unmarshal(rawBody, &errResp); err == nil &&
		errResp.Error != "" {

		return errResp.Error
	}

	return string(rawBody)
}

// A compile time assertion to make sure Client implements the
// auction.TokenClient interface.
var _ auction.TokenClient = (*Client)(nil)
