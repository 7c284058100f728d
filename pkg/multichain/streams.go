package multichain

import (
	"context"
	"encoding/json"
	"strings"
)

// Info is the subset of getinfo the service reads.
type Info struct {
	Version   string `json:"version"`
	ChainName string `json:"chainname"`
	Blocks    int64  `json:"blocks"`
}

// Stream describes one entry from liststreams.
type Stream struct {
	Name       string `json:"name"`
	CreateTxID string `json:"createtxid"`
	Subscribed bool   `json:"subscribed"`
	Open       bool   `json:"open"`
}

// StreamItem is a published entry. Data is usually a hex string but large or
// off-chain items come back as an object.
type StreamItem struct {
	TxID      string          `json:"txid"`
	Keys      []string        `json:"keys"`
	Data      json.RawMessage `json:"data"`
	Time      int64           `json:"time"`
	BlockTime int64           `json:"blocktime"`
}

// HexData returns the payload when it was stored inline as hex.
func (i StreamItem) HexData() (string, bool) {
	var hex string
	if len(i.Data) == 0 || json.Unmarshal(i.Data, &hex) != nil {
		return "", false
	}
	return hex, strings.TrimSpace(hex) != ""
}

// Timestamp prefers the node's receive time and falls back to the block time.
func (i StreamItem) Timestamp() int64 {
	if i.Time > 0 {
		return i.Time
	}
	return i.BlockTime
}

// GetInfo doubles as the liveness probe.
func (c *Client) GetInfo(ctx context.Context) (*Info, error) {
	var info Info
	if err := c.Call(ctx, "getinfo", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) ListStreams(ctx context.Context) ([]Stream, error) {
	var streams []Stream
	if err := c.Call(ctx, "liststreams", nil, &streams); err != nil {
		return nil, err
	}
	return streams, nil
}

// CreateStream creates a stream; open streams accept writes from any publisher.
// An already existing stream is not an error.
func (c *Client) CreateStream(ctx context.Context, name string, open bool) (string, error) {
	var txid string
	err := c.Call(ctx, "create", []any{"stream", name, open}, &txid)
	if IsRPCCode(err, errCodeStreamExists) {
		return "", nil
	}
	return txid, err
}

func (c *Client) Subscribe(ctx context.Context, stream string) error {
	return c.Call(ctx, "subscribe", []any{stream}, nil)
}

// Publish appends hexData under every key in keys and returns the transaction id.
func (c *Client) Publish(ctx context.Context, stream string, keys []string, hexData string) (string, error) {
	var key any = keys
	if len(keys) == 1 {
		key = keys[0]
	}
	var txid string
	if err := c.Call(ctx, "publish", []any{stream, key, hexData}, &txid); err != nil {
		return "", err
	}
	return txid, nil
}

// ListStreamKeyItems returns the items published under key, oldest first.
func (c *Client) ListStreamKeyItems(ctx context.Context, stream, key string) ([]StreamItem, error) {
	var items []StreamItem
	if err := c.Call(ctx, "liststreamkeyitems", []any{stream, key, false, c.maxItems}, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetTxOutData returns the raw payload of the first output of txid.
func (c *Client) GetTxOutData(ctx context.Context, txid string) (json.RawMessage, error) {
	var data json.RawMessage
	if err := c.Call(ctx, "gettxoutdata", []any{txid, defaultTxOutputIndex}, &data); err != nil {
		return nil, err
	}
	return data, nil
}
