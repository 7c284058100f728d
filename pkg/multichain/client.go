package multichain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	pkgerrors "github.com/angelmondragon/trustchain-backend/pkg/errors"
)

const (
	defaultTimeout        = 10 * time.Second
	responseBodyReadLimit = 1024
	defaultMaxItems       = 10000
	defaultTxOutputIndex  = 0
)

// Node error codes the client interprets.
const (
	errCodeTxNotFound     = -5
	errCodeStreamExists   = -705
	errCodeEntityNotFound = -708
)

var errEndpointRequired = errors.New("multichain rpc endpoint is required")

// Client speaks JSON-RPC to a MultiChain node.
type Client struct {
	httpClient *http.Client
	endpoint   string
	user       string
	password   string
	chainName  string
	maxItems   int
	nextID     atomic.Int64
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBasicAuth sets the rpcuser/rpcpassword pair.
func WithBasicAuth(user, password string) Option {
	return func(c *Client) {
		c.user = user
		c.password = password
	}
}

// WithChainName tags each request with the chain it targets.
func WithChainName(name string) Option {
	return func(c *Client) {
		c.chainName = strings.TrimSpace(name)
	}
}

// WithTimeout bounds every RPC round trip.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithMaxItems caps how many items a stream query returns.
func WithMaxItems(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxItems = n
		}
	}
}

// NewClient builds a client for the node at endpoint, e.g. http://localhost:7189.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if trimmed == "" {
		return nil, errEndpointRequired
	}

	client := &Client{
		endpoint:   trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
		maxItems:   defaultMaxItems,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// RPCError is an error object returned by the node.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("multichain rpc error %d: %s", e.Code, e.Message)
}

// IsRPCCode reports whether err carries a node error with the given code.
func IsRPCCode(err error, code int) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == code
}

// IsNotFound reports whether the node said the requested entity does not exist.
func IsNotFound(err error) bool {
	return IsRPCCode(err, errCodeEntityNotFound) || IsRPCCode(err, errCodeTxNotFound)
}

type rpcRequest struct {
	ID        int64  `json:"id"`
	Method    string `json:"method"`
	Params    []any  `json:"params"`
	ChainName string `json:"chain_name,omitempty"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// Call executes a raw RPC method and decodes the result into out when non-nil.
func (c *Client) Call(ctx context.Context, method string, params []any, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "multichain client not configured")
	}
	if params == nil {
		params = []any{}
	}

	payload, err := json.Marshal(rpcRequest{
		ID:        c.nextID.Add(1),
		Method:    method,
		Params:    params,
		ChainName: c.chainName,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal "+method+" request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build "+method+" request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.user != "" || c.password != "" {
		httpReq.SetBasicAuth(c.user, c.password)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute "+method+" request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read "+method+" response")
	}

	// The node reports RPC failures with a 500 and a JSON error object.
	var decoded rpcResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		if resp.StatusCode != http.StatusOK {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body)), method+" request failed")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode "+method+" response")
	}
	if decoded.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, decoded.Error, method+" rejected")
	}
	if resp.StatusCode != http.StatusOK {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body)), method+" request failed")
	}
	if out == nil || len(decoded.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(decoded.Result, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode "+method+" result")
	}
	return nil
}

func truncate(body []byte) string {
	if len(body) > responseBodyReadLimit {
		body = body[:responseBodyReadLimit]
	}
	return strings.TrimSpace(string(body))
}
