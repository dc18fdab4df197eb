package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/carrom/internal/auth"
	"github.com/playmatatu/carrom/internal/game"
)

const commandTimeout = 2 * time.Second

// HandleWebSocket attaches a viewer to a board. The viewer must present the
// session token issued when the board was created.
func HandleWebSocket(hub *Hub, manager *game.BoardManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		boardToken := c.Param("token")
		sessionToken := c.Query("session")

		if boardToken == "" || sessionToken == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token and session required"})
			return
		}

		claims, err := auth.AuthorizeBoard(manager.GetConfig().JWTSecret, sessionToken, boardToken)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		session, err := manager.GetBoardByToken(boardToken)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "board not found"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS] Upgrade error: %v", err)
			return
		}

		client := &Client{
			hub:        hub,
			conn:       conn,
			viewerID:   claims.ViewerID,
			boardToken: boardToken,
			session:    session,
			send:       make(chan []byte, 256),
		}

		if !hub.add(client) {
			conn.Close()
			return
		}
		hub.touchPresence(client, true)

		go client.writePump()
		client.sendWelcome()
		go client.readPump()
	}
}

func (c *Client) sendWelcome() {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	snap, err := c.session.Snapshot(ctx)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.hub.sendTo(c, map[string]interface{}{
		"type": "welcome",
		"data": WelcomeData{BoardToken: c.boardToken, ViewerID: c.viewerID, Board: snap},
	})
}

// handleMessage applies one viewer message to the board
func (c *Client) handleMessage(msg WSMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if kind, ok := pointerKinds[msg.Type]; ok {
		var data PointerData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid pointer data")
			return
		}
		ev := data.event(kind)
		c.relay(func() error { return c.session.Pointer(ctx, ev) })
		return
	}

	switch msg.Type {
	case "camera":
		var data CameraData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid camera data")
			return
		}
		cam, ok := data.camera()
		if !ok {
			c.sendError("invalid camera pose")
			return
		}
		c.relay(func() error { return c.session.SetCamera(ctx, cam) })

	case "get_state":
		snap, err := c.session.Snapshot(ctx)
		if err != nil {
			c.report(err)
			return
		}
		c.hub.sendTo(c, map[string]interface{}{"type": "frame", "data": snap})

	default:
		c.sendError("unknown message type")
	}
}

// relay applies fn to the board unless this connection has been replaced
func (c *Client) relay(fn func() error) {
	current, err := c.hub.forward(c, fn)
	if !current {
		log.Printf("[WS] Dropping input from replaced viewer %s on board %s", c.viewerID, c.boardToken)
		return
	}
	c.report(err)
}

func (c *Client) report(err error) {
	switch {
	case err == nil:
	case errors.Is(err, game.ErrBoardClosed):
		c.sendError("board closed")
	default:
		c.sendError(err.Error())
	}
}
