package blockchain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/alexandrut83/alerimpool/clarity"
)

// maxResponseBytes caps how much of a node response is read.
const maxResponseBytes = 8 << 20

// ReadOnlyCall describes a single read-only contract invocation.
type ReadOnlyCall struct {
	ContractAddress string
	ContractName    string
	FunctionName    string
	Sender          string
	Args            []clarity.Value
}

// CallError is returned when the node evaluated a read-only call and
// reported it as failed (runtime error, unknown function, bad arguments).
type CallError struct {
	Function string
	Cause    string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("read-only call %s failed: %s", e.Function, e.Cause)
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("node returned %d: %s", e.StatusCode, e.Body)
}

// BroadcastError is returned when the node rejects a transaction.
type BroadcastError struct {
	Reason string `json:"reason"`
	Err    string `json:"error"`
	TxID   string `json:"txid"`
}

func (e *BroadcastError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("transaction rejected: %s (%s)", e.Err, e.Reason)
	}
	return fmt.Sprintf("transaction rejected: %s", e.Err)
}

// AccountInfo is the node's view of an account.
type AccountInfo struct {
	Balance string `json:"balance"`
	Locked  string `json:"locked"`
	Nonce   uint64 `json:"nonce"`
}

// Client talks to a node's HTTP API. It holds no mutable state and is safe
// for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the configured tier. A nil httpClient
// gets one with the configured timeout.
func NewClient(cfg *Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout()}
	}
	return &Client{baseURL: cfg.Params().APIURL, http: httpClient}
}

type callReadRequest struct {
	Sender    string   `json:"sender"`
	Arguments []string `json:"arguments"`
}

type callReadResponse struct {
	Okay   bool   `json:"okay"`
	Result string `json:"result"`
	Cause  string `json:"cause"`
}

// CallReadOnly evaluates a read-only function and returns its raw result.
func (c *Client) CallReadOnly(ctx context.Context, call ReadOnlyCall) (clarity.Value, error) {
	args := make([]string, 0, len(call.Args))
	for i, arg := range call.Args {
		encoded, err := clarity.ToHex(arg)
		if err != nil {
			return nil, errors.Wrapf(err, "encode argument %d of %s", i, call.FunctionName)
		}
		args = append(args, encoded)
	}
	body, err := json.Marshal(callReadRequest{Sender: call.Sender, Arguments: args})
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf("/v2/contracts/call-read/%s/%s/%s",
		url.PathEscape(call.ContractAddress), url.PathEscape(call.ContractName), url.PathEscape(call.FunctionName))

	var resp callReadResponse
	if err := c.do(ctx, http.MethodPost, path, "application/json", body, &resp); err != nil {
		return nil, errors.Wrapf(err, "call %s", call.FunctionName)
	}
	if !resp.Okay {
		return nil, &CallError{Function: call.FunctionName, Cause: resp.Cause}
	}
	value, err := clarity.FromHex(resp.Result)
	if err != nil {
		return nil, errors.Wrapf(err, "decode result of %s", call.FunctionName)
	}
	return value, nil
}

// GetAccount returns balance and nonce of a principal.
func (c *Client) GetAccount(ctx context.Context, principal string) (*AccountInfo, error) {
	var info AccountInfo
	path := "/v2/accounts/" + url.PathEscape(principal) + "?proof=0"
	if err := c.do(ctx, http.MethodGet, path, "", nil, &info); err != nil {
		return nil, errors.Wrapf(err, "get account %s", principal)
	}
	return &info, nil
}

// GetInfo returns the node's chain tip information.
func (c *Client) GetInfo(ctx context.Context) (*ChainInfo, error) {
	var info ChainInfo
	if err := c.do(ctx, http.MethodGet, "/v2/info", "", nil, &info); err != nil {
		return nil, errors.Wrap(err, "get info")
	}
	return &info, nil
}

// BroadcastTransaction submits a serialized transaction and returns its id.
func (c *Client) BroadcastTransaction(ctx context.Context, raw []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/transactions", bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	res, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "broadcast transaction")
	}
	defer res.Body.Close()
	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return "", errors.Wrap(err, "read broadcast response")
	}
	if res.StatusCode != http.StatusOK {
		var rejected BroadcastError
		if json.Unmarshal(data, &rejected) == nil && rejected.Err != "" {
			return "", &rejected
		}
		return "", &StatusError{StatusCode: res.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	var txid string
	if err := json.Unmarshal(data, &txid); err != nil {
		txid = strings.Trim(strings.TrimSpace(string(data)), `"`)
	}
	if !strings.HasPrefix(txid, "0x") {
		txid = "0x" + txid
	}
	return txid, nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &StatusError{StatusCode: res.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return json.Unmarshal(data, out)
}
