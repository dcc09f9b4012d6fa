package chain

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// Node is the slice of the CometBFT RPC the adapter needs.
type Node interface {
	ChainID(ctx context.Context) (string, error)
	Account(ctx context.Context, address string) (Account, error)
	BroadcastTxSync(ctx context.Context, tx []byte) (BroadcastResult, error)
	Tx(ctx context.Context, hash string) (TxResult, error)
}

// BroadcastResult is the CheckTx outcome returned by broadcast_tx_sync.
type BroadcastResult struct {
	Code      uint32
	Codespace string
	Log       string
	Hash      string
}

// TxResult is a transaction found in a block.
type TxResult struct {
	Hash   string
	Height int64
	Index  uint32
	Code   uint32
	Log    string
	Tx     []byte
}

// SearchPage is one page of tx_search results.
type SearchPage struct {
	Txs        []TxResult
	TotalCount int
}

// wrongSequenceCode is the Cosmos SDK error code for an account sequence mismatch.
const wrongSequenceCode = 32

// RPCClient talks CometBFT JSON-RPC over HTTP.
type RPCClient struct {
	Endpoint   string
	HTTPClient *http.Client
	nextID     atomic.Int64
}

func NewRPCClient(endpoint string, timeout time.Duration) *RPCClient {
	return &RPCClient{
		Endpoint:   strings.TrimRight(endpoint, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int64       `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// RPCError is an error object returned by the node.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

func (e *RPCError) Error() string {
	if e.Data != "" {
		return fmt.Sprintf("rpc error %d: %s: %s", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func (c *RPCClient) call(ctx context.Context, method string, params interface{}, out interface{}) error {
	if params == nil {
		params = map[string]interface{}{}
	}
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: c.nextID.Add(1), Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", method, err)
	}

	var envelope rpcResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("%s: unexpected response (HTTP %d): %w", method, resp.StatusCode, err)
	}
	if envelope.Error != nil {
		return envelope.Error
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: HTTP %d", method, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}

func (c *RPCClient) ChainID(ctx context.Context) (string, error) {
	var status struct {
		NodeInfo struct {
			Network string `json:"network"`
		} `json:"node_info"`
	}
	if err := c.call(ctx, "status", nil, &status); err != nil {
		return "", err
	}
	if status.NodeInfo.Network == "" {
		return "", errors.New("status: node reported no network")
	}
	return status.NodeInfo.Network, nil
}

// LatestHeight returns the height of the newest committed block.
func (c *RPCClient) LatestHeight(ctx context.Context) (int64, error) {
	var status struct {
		SyncInfo struct {
			LatestBlockHeight string `json:"latest_block_height"`
		} `json:"sync_info"`
	}
	if err := c.call(ctx, "status", nil, &status); err != nil {
		return 0, err
	}
	return strconv.ParseInt(status.SyncInfo.LatestBlockHeight, 10, 64)
}

func (c *RPCClient) Account(ctx context.Context, address string) (Account, error) {
	params := map[string]interface{}{
		"path":  "/cosmos.auth.v1beta1.Query/Account",
		"data":  hex.EncodeToString(encodeQueryAccountRequest(address)),
		"prove": false,
	}
	var result struct {
		Response struct {
			Code  uint32 `json:"code"`
			Log   string `json:"log"`
			Value []byte `json:"value"`
		} `json:"response"`
	}
	if err := c.call(ctx, "abci_query", params, &result); err != nil {
		return Account{}, err
	}
	if result.Response.Code != 0 {
		return Account{}, fmt.Errorf("account %s: query code %d: %s", address, result.Response.Code, result.Response.Log)
	}
	return decodeAccount(result.Response.Value)
}

func (c *RPCClient) BroadcastTxSync(ctx context.Context, tx []byte) (BroadcastResult, error) {
	var result struct {
		Code      uint32 `json:"code"`
		Codespace string `json:"codespace"`
		Log       string `json:"log"`
		Hash      string `json:"hash"`
	}
	if err := c.call(ctx, "broadcast_tx_sync", map[string]interface{}{"tx": tx}, &result); err != nil {
		return BroadcastResult{}, err
	}
	return BroadcastResult{Code: result.Code, Codespace: result.Codespace, Log: result.Log, Hash: result.Hash}, nil
}

type rpcTx struct {
	Hash     string `json:"hash"`
	Height   string `json:"height"`
	Index    uint32 `json:"index"`
	TxResult struct {
		Code uint32 `json:"code"`
		Log  string `json:"log"`
	} `json:"tx_result"`
	Tx []byte `json:"tx"`
}

func (t rpcTx) result() (TxResult, error) {
	height, err := strconv.ParseInt(t.Height, 10, 64)
	if err != nil {
		return TxResult{}, fmt.Errorf("tx %s: bad height '%s': %w", t.Hash, t.Height, err)
	}
	return TxResult{
		Hash:   strings.ToUpper(t.Hash),
		Height: height,
		Index:  t.Index,
		Code:   t.TxResult.Code,
		Log:    t.TxResult.Log,
		Tx:     t.Tx,
	}, nil
}

func (c *RPCClient) Tx(ctx context.Context, hash string) (TxResult, error) {
	raw, err := hex.DecodeString(hash)
	if err != nil {
		return TxResult{}, fmt.Errorf("invalid tx hash '%s': %w", hash, err)
	}
	var tx rpcTx
	err = c.call(ctx, "tx", map[string]interface{}{"hash": base64.StdEncoding.EncodeToString(raw), "prove": false}, &tx)
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) && strings.Contains(strings.ToLower(rpcErr.Data+rpcErr.Message), "not found") {
			return TxResult{}, ErrTxNotFound
		}
		return TxResult{}, err
	}
	return tx.result()
}

// TxSearch runs tx_search ordered by height ascending. page is 1-based.
func (c *RPCClient) TxSearch(ctx context.Context, query string, page, perPage int) (SearchPage, error) {
	params := map[string]interface{}{
		"query":    query,
		"prove":    false,
		"page":     strconv.Itoa(page),
		"per_page": strconv.Itoa(perPage),
		"order_by": "asc",
	}
	var result struct {
		Txs        []rpcTx `json:"txs"`
		TotalCount string  `json:"total_count"`
	}
	if err := c.call(ctx, "tx_search", params, &result); err != nil {
		return SearchPage{}, err
	}

	total, err := strconv.Atoi(result.TotalCount)
	if err != nil {
		return SearchPage{}, fmt.Errorf("tx_search: bad total_count '%s': %w", result.TotalCount, err)
	}
	out := SearchPage{TotalCount: total, Txs: make([]TxResult, 0, len(result.Txs))}
	for _, t := range result.Txs {
		r, err := t.result()
		if err != nil {
			return SearchPage{}, err
		}
		out.Txs = append(out.Txs, r)
	}
	return out, nil
}
