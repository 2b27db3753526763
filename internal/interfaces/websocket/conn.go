package websocket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	syncpkg "github.com/zack-george/instanthspro/internal/sync"
	"github.com/zack-george/instanthspro/pkg/api"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait).
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4 * 1024
)

// snapshotMessage is the wire envelope for one merged view update.
type snapshotMessage struct {
	Type    string               `json:"type"`
	Profile *api.ProfileResponse `json:"profile"`
	Gallery []string             `json:"gallery"`
}

// connection owns one upgraded socket and the syncer feeding it. The
// read pump only watches for the peer closing; clients never send data.
type connection struct {
	userID string
	conn   *websocket.Conn
	syncer *syncpkg.Syncer
	cancel func()
	logger *zap.Logger
}

func newConnection(userID string, conn *websocket.Conn, syncer *syncpkg.Syncer, cancel func(), logger *zap.Logger) *connection {
	return &connection{
		userID: userID,
		conn:   conn,
		syncer: syncer,
		cancel: cancel,
		logger: logger.With(zap.String("userID", userID)),
	}
}

func (c *connection) start() {
	go c.writePump()
	go c.readPump()
}

// teardown stops the syncer and closes the socket. Safe to call from
// both pumps; the underlying operations are idempotent.
func (c *connection) teardown() {
	c.syncer.Stop()
	c.cancel()
	c.conn.Close()
}

func (c *connection) readPump() {
	defer c.teardown()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}
	}
}

func (c *connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.teardown()
	}()

	for {
		select {
		case snapshot, ok := <-c.syncer.Updates():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, encodeSnapshot(snapshot)); err != nil {
				c.logger.Debug("failed to write snapshot", zap.Error(err))
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

func encodeSnapshot(snapshot syncpkg.Snapshot) []byte {
	msg := snapshotMessage{Type: "snapshot", Gallery: snapshot.Gallery}
	if snapshot.Profile != nil {
		msg.Profile = &api.ProfileResponse{
			IdentityID: snapshot.Profile.IdentityID,
			Email:      snapshot.Profile.Email,
			Credits:    snapshot.Profile.Credits,
			CreatedAt:  snapshot.Profile.CreatedAt.Format(time.RFC3339),
			UpdatedAt:  snapshot.Profile.UpdatedAt.Format(time.RFC3339),
		}
	}
	data, _ := json.Marshal(msg)
	return data
}
