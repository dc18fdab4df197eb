package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/playmatatu/carrom/internal/game"
	"github.com/playmatatu/carrom/internal/ws"
)

// HandleBoardWebSocket handles real-time board input and frames
func HandleBoardWebSocket(hub *ws.Hub, manager *game.BoardManager) gin.HandlerFunc {
	return ws.HandleWebSocket(hub, manager)
}
