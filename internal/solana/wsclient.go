package solana

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"solexplorer/internal/jsonrpc"
)

var errConnClosed = errors.New("WebSocket connection closed")

// WSTransport multiplexes JSON-RPC requests over a single WebSocket connection.
// The connection is dialed on first use and redialed after it drops.
type WSTransport struct {
	url            string
	messageTimeout time.Duration
	logger         zerolog.Logger

	conn    *websocket.Conn
	connMu  sync.Mutex
	writeMu sync.Mutex

	pending   map[int64]chan *jsonrpc.Response
	pendingMu sync.Mutex
	reqID     int64

	closed atomic.Bool
	wg     sync.WaitGroup
}

// NewWSTransport creates a WebSocket transport for url
func NewWSTransport(url string, messageTimeout time.Duration, logger zerolog.Logger) *WSTransport {
	return &WSTransport{
		url:            url,
		messageTimeout: messageTimeout,
		logger:         logger,
		pending:        make(map[int64]chan *jsonrpc.Response),
	}
}

// connect returns the live connection, dialing if needed
func (t *WSTransport) connect(ctx context.Context) (*websocket.Conn, error) {
	t.connMu.Lock()
	defer t.connMu.Unlock()

	if t.closed.Load() {
		return nil, errConnClosed
	}
	if t.conn != nil {
		return t.conn, nil
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, t.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect WebSocket: %w", err)
	}
	t.conn = conn
	t.logger.Debug().Msg("WebSocket connected")

	t.wg.Add(1)
	go t.readLoop(conn)
	return conn, nil
}

// Execute sends req and waits for the response with the matching id
func (t *WSTransport) Execute(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	conn, err := t.connect(ctx)
	if err != nil {
		return nil, err
	}

	reqID := atomic.AddInt64(&t.reqID, 1)
	respChan := make(chan *jsonrpc.Response, 1)

	t.pendingMu.Lock()
	t.pending[reqID] = respChan
	t.pendingMu.Unlock()

	wsReq := req.WithID(jsonrpc.NewIDInt(reqID))

	reqBytes, err := wsReq.Bytes()
	if err != nil {
		t.dropPending(reqID)
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	t.writeMu.Lock()
	writeErr := conn.WriteMessage(websocket.TextMessage, reqBytes)
	t.writeMu.Unlock()
	if writeErr != nil {
		t.dropPending(reqID)
		return nil, fmt.Errorf("failed to send request: %w", writeErr)
	}

	select {
	case resp := <-respChan:
		if resp == nil {
			return nil, errConnClosed
		}
		resp.ID = req.ID
		return resp, nil
	case <-ctx.Done():
		t.dropPending(reqID)
		return nil, ctx.Err()
	}
}

func (t *WSTransport) dropPending(reqID int64) {
	t.pendingMu.Lock()
	delete(t.pending, reqID)
	t.pendingMu.Unlock()
}

// readLoop routes responses to their waiting callers until the connection fails
func (t *WSTransport) readLoop(conn *websocket.Conn) {
	defer t.wg.Done()

	readTimeout := t.messageTimeout
	if readTimeout == 0 {
		readTimeout = 60 * time.Second
	}

	for {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !t.closed.Load() {
				t.logger.Warn().Err(err).Msg("WebSocket connection lost")
			}
			t.disconnect(conn)
			return
		}

		resp, err := jsonrpc.ParseResponse(data)
		if err != nil {
			t.logger.Debug().Err(err).Msg("ignoring unparseable message")
			continue
		}

		id, ok := resp.ID.Int()
		if !ok {
			// notifications carry no id; this transport does not subscribe
			continue
		}

		t.pendingMu.Lock()
		ch, ok := t.pending[id]
		delete(t.pending, id)
		t.pendingMu.Unlock()

		if ok {
			ch <- resp
		}
	}
}

// disconnect forgets conn and fails every pending request
func (t *WSTransport) disconnect(conn *websocket.Conn) {
	t.connMu.Lock()
	if t.conn == conn {
		t.conn = nil
	}
	t.connMu.Unlock()
	conn.Close()

	t.pendingMu.Lock()
	for id, ch := range t.pending {
		close(ch)
		delete(t.pending, id)
	}
	t.pendingMu.Unlock()
}

// Close closes the connection and waits for the reader to stop
func (t *WSTransport) Close() {
	t.closed.Store(true)

	t.connMu.Lock()
	conn := t.conn
	t.connMu.Unlock()

	if conn != nil {
		t.writeMu.Lock()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		t.writeMu.Unlock()
		conn.Close()
	}
	t.wg.Wait()
}
