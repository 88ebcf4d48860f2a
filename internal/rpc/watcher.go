package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"time-release-helper/internal/extrinsic"
	"time-release-helper/internal/interfaces"
	"time-release-helper/internal/models"
)

const (
	submitAndWatch = "author_submitAndWatchExtrinsic"
	unwatch        = "author_unwatchExtrinsic"
	updateMethod   = "author_extrinsicUpdate"

	writeWait = 5 * time.Second
)

var _ interfaces.Broadcaster = (*Watcher)(nil)

// Watcher signs calls through a Signer and watches the extrinsic over a websocket
type Watcher struct {
	URL    string
	Signer interfaces.Signer
	Dialer *websocket.Dialer
	Logger *zerolog.Logger
}

// NewWatcher creates a broadcaster for the websocket endpoint url
func NewWatcher(url string, signer interfaces.Signer, logger *zerolog.Logger) *Watcher {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Watcher{
		URL:    url,
		Signer: signer,
		Dialer: websocket.DefaultDialer,
		Logger: logger,
	}
}

func (w *Watcher) SignAndBroadcast(ctx context.Context, call []byte, signer models.Signatory) (<-chan models.StatusEvent, error) {
	signed, err := w.Signer.Sign(ctx, signer, call)
	if err != nil {
		return nil, err
	}
	txHash := extrinsic.TxHash(signed)

	conn, _, err := w.Dialer.DialContext(ctx, w.URL, nil)
	if err != nil {
		return nil, &models.BroadcastFailedError{Reason: fmt.Sprintf("failed to connect to %s: %v", w.URL, err)}
	}

	request := models.RPCRequest{
		Jsonrpc: "2.0",
		ID:      1,
		Method:  submitAndWatch,
		Params:  []interface{}{hexutil.Encode(signed)},
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(request); err != nil {
		_ = conn.Close()
		return nil, &models.BroadcastFailedError{Reason: fmt.Sprintf("failed to send extrinsic: %v", err)}
	}

	// the reply read has no deadline of its own, closing the conn unblocks it
	stopClose := context.AfterFunc(ctx, func() { _ = conn.Close() })
	subscription, err := readSubscription(conn)
	if !stopClose() {
		_ = conn.Close()
		return nil, fmt.Errorf("waiting for submission reply: %w", ctx.Err())
	}
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	w.Logger.Info().
		Str("tx_hash", txHash).
		Str("subscription", subscription).
		Str("signer", signer.String()).
		Msg("Extrinsic submitted")

	out := make(chan models.StatusEvent)
	go w.watch(ctx, conn, subscription, txHash, out)
	return out, nil
}

// readSubscription waits for the reply to the submit request
func readSubscription(conn *websocket.Conn) (string, error) {
	for {
		var resp models.RPCResponse
		if err := conn.ReadJSON(&resp); err != nil {
			return "", &models.BroadcastFailedError{Reason: fmt.Sprintf("no reply to submission: %v", err)}
		}
		if resp.Method != "" {
			continue
		}
		if resp.Error != nil {
			return "", &models.BroadcastFailedError{Reason: fmt.Sprintf("%d - %s", resp.Error.Code, resp.Error.Message)}
		}
		var id string
		if err := json.Unmarshal(resp.Result, &id); err != nil {
			return "", &models.BroadcastFailedError{Reason: fmt.Sprintf("invalid subscription id: %s", resp.Result)}
		}
		return id, nil
	}
}

func (w *Watcher) watch(ctx context.Context, conn *websocket.Conn, subscription, txHash string, out chan<- models.StatusEvent) {
	defer close(out)

	var closeOnce sync.Once
	closeConn := func() { closeOnce.Do(func() { _ = conn.Close() }) }
	defer closeConn()

	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-ctx.Done():
			w.unsubscribe(conn, subscription)
			closeConn()
		case <-finished:
		}
	}()

	for {
		var msg models.RPCResponse
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() == nil {
				w.Logger.Warn().Err(err).Str("tx_hash", txHash).Msg("Status subscription closed")
			}
			return
		}
		if msg.Method != updateMethod || msg.Params == nil {
			continue
		}
		var sub string
		if err := json.Unmarshal(msg.Params.Subscription, &sub); err != nil || sub != subscription {
			continue
		}

		ev, err := ParseStatus(msg.Params.Result)
		if err != nil {
			w.Logger.Warn().Err(err).Str("tx_hash", txHash).Msg("Unrecognised extrinsic status")
			continue
		}
		ev.TxHash = txHash

		select {
		case out <- ev:
		case <-ctx.Done():
			return
		}

		if ev.Kind == models.EventFinalized || ev.Kind == models.EventError {
			return
		}
	}
}

func (w *Watcher) unsubscribe(conn *websocket.Conn, subscription string) {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := conn.WriteJSON(models.RPCRequest{
		Jsonrpc: "2.0",
		ID:      2,
		Method:  unwatch,
		Params:  []interface{}{subscription},
	})
	if err != nil {
		w.Logger.Debug().Err(err).Str("subscription", subscription).Msg("Failed to unwatch extrinsic")
	}
}

// ParseStatus maps a TransactionStatus notification to a status event
func ParseStatus(raw json.RawMessage) (models.StatusEvent, error) {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		switch name {
		case "ready", "future":
			return models.StatusEvent{Kind: models.EventReady}, nil
		case "broadcast":
			return models.StatusEvent{Kind: models.EventBroadcast}, nil
		case "dropped", "invalid":
			return errorEvent(name), nil
		default:
			return models.StatusEvent{}, fmt.Errorf("unknown status %q", name)
		}
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return models.StatusEvent{}, fmt.Errorf("invalid status payload: %s", raw)
	}

	for key, value := range obj {
		var block string
		_ = json.Unmarshal(value, &block)

		switch key {
		case "broadcast", "retracted":
			return models.StatusEvent{Kind: models.EventBroadcast}, nil
		case "inBlock":
			return models.StatusEvent{Kind: models.EventInBlock, BlockRef: block}, nil
		case "finalized":
			return models.StatusEvent{Kind: models.EventFinalized, BlockRef: block}, nil
		case "usurped", "finalityTimeout":
			ev := errorEvent(key)
			ev.BlockRef = block
			return ev, nil
		}
	}
	return models.StatusEvent{}, fmt.Errorf("unknown status payload: %s", raw)
}

func errorEvent(reason string) models.StatusEvent {
	return models.StatusEvent{
		Kind:   models.EventError,
		Reason: reason,
		Err:    &models.BroadcastFailedError{Reason: reason},
	}
}
