package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"solexplorer/internal/jsonrpc"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Client represents a WebSocket client connection
type Client struct {
	conn    *websocket.Conn
	sources map[string]Source
	logger  zerolog.Logger

	watches map[string]func()
	closed  bool
	watchMu sync.Mutex

	sendChan  chan []byte
	closeChan chan struct{}
	closeOnce sync.Once
}

// NewClient creates a new WebSocket client
func NewClient(conn *websocket.Conn, sources map[string]Source, logger zerolog.Logger) *Client {
	return &Client{
		conn:      conn,
		sources:   sources,
		logger:    logger,
		watches:   make(map[string]func()),
		sendChan:  make(chan []byte, 256),
		closeChan: make(chan struct{}),
	}
}

// Run starts the client read and write loops
func (c *Client) Run(ctx context.Context) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go c.writePump(ctx)

	c.readPump(ctx)
}

// readPump reads messages from the WebSocket connection
func (c *Client) readPump(ctx context.Context) {
	defer c.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.closeChan:
			return
		default:
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug().Err(err).Msg("read error")
			}
			return
		}

		c.handleMessage(data)
	}
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.closeChan:
			return
		case data := <-c.sendChan:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug().Err(err).Msg("write error")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes an incoming message
func (c *Client) handleMessage(data []byte) {
	req, err := jsonrpc.ParseRequest(data)
	if err != nil {
		c.sendError(jsonrpc.NewIDNull(), jsonrpc.ErrParse)
		return
	}
	if err := req.Validate(); err != nil {
		c.sendError(req.ID, jsonrpc.NewError(jsonrpc.CodeInvalidRequest, err.Error()))
		return
	}

	switch req.Method {
	case MethodWatch:
		c.handleWatch(req)
	case MethodUnwatch:
		c.handleUnwatch(req)
	default:
		c.sendError(req.ID, jsonrpc.ErrMethodNotFound)
	}
}

// handleWatch handles a watch request with params [feature, key]
func (c *Client) handleWatch(req *jsonrpc.Request) {
	params, err := req.StringParams()
	if err != nil || len(params) != 2 || params[1] == "" {
		c.sendError(req.ID, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "expected [feature, key]"))
		return
	}
	feature, key := params[0], params[1]

	src, ok := c.sources[feature]
	if !ok {
		c.sendError(req.ID, jsonrpc.NewError(jsonrpc.CodeInvalidParams, fmt.Sprintf("unknown feature: %s", feature)))
		return
	}

	watchID := uuid.NewString()
	cancel := src.Watch(key, func(ev EntryChanged) {
		ev.Watch = watchID
		c.sendNotification(jsonrpc.NewNotification(MethodEntryChanged, ev))
	})

	c.watchMu.Lock()
	if c.closed {
		c.watchMu.Unlock()
		cancel()
		return
	}
	c.watches[watchID] = cancel
	c.watchMu.Unlock()

	resp, _ := jsonrpc.NewResponse(req.ID, watchID)
	c.sendResponse(resp)

	c.logger.Debug().
		Str("watchID", watchID).
		Str("feature", feature).
		Str("key", key).
		Msg("watch created")
}

// handleUnwatch handles an unwatch request with params [watchID]
func (c *Client) handleUnwatch(req *jsonrpc.Request) {
	params, err := req.StringParams()
	if err != nil || len(params) != 1 {
		c.sendError(req.ID, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "expected [watchId]"))
		return
	}
	watchID := params[0]

	c.watchMu.Lock()
	cancel, ok := c.watches[watchID]
	delete(c.watches, watchID)
	c.watchMu.Unlock()

	if ok {
		cancel()
	}

	resp, _ := jsonrpc.NewResponse(req.ID, ok)
	c.sendResponse(resp)

	c.logger.Debug().
		Str("watchID", watchID).
		Bool("success", ok).
		Msg("unwatch requested")
}

// sendResponse sends a JSON-RPC response
func (c *Client) sendResponse(resp *jsonrpc.Response) {
	data, err := resp.Bytes()
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to marshal response")
		return
	}
	c.send(data)
}

func (c *Client) sendNotification(n *jsonrpc.Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to marshal notification")
		return
	}
	c.send(data)
}

// sendError sends a JSON-RPC error response
func (c *Client) sendError(id jsonrpc.ID, rpcErr *jsonrpc.Error) {
	c.sendResponse(jsonrpc.NewErrorResponse(id, rpcErr))
}

// send queues data for the write loop. It never blocks; notifications are
// delivered from inside cache dispatch.
func (c *Client) send(data []byte) {
	select {
	case c.sendChan <- data:
	case <-c.closeChan:
	default:
		c.logger.Warn().Msg("send channel full, dropping message")
	}
}

// Close closes the client connection and drops its watches
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closeChan)

		c.watchMu.Lock()
		c.closed = true
		watches := c.watches
		c.watches = make(map[string]func())
		c.watchMu.Unlock()
		for _, cancel := range watches {
			cancel()
		}

		c.conn.Close()
		c.logger.Debug().Int("watches", len(watches)).Msg("client closed")
	})
}
