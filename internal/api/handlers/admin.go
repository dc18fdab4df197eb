package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/carrom/internal/admin"
	"github.com/playmatatu/carrom/internal/game"
	"github.com/playmatatu/carrom/internal/ws"
)

// RequireAdmin validates the X-Admin-User / X-Admin-Token header pair
func RequireAdmin(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Admin API requires a database"})
			return
		}

		username := c.GetHeader("X-Admin-User")
		token := c.GetHeader("X-Admin-Token")
		if username == "" || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		acct, err := admin.ValidateAdminUserAndToken(db, username, token)
		if err != nil {
			if !errors.Is(err, admin.ErrAdminNotFound) && !errors.Is(err, admin.ErrInvalidToken) {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
				return
			}
			admin.LogAdminAction(db, username, c.ClientIP(), c.FullPath(), "auth_failed", nil, false)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}

		c.Set("admin_username", acct.Username)
		c.Next()
	}
}

// GetAdminBoards lists the live boards on this instance
func GetAdminBoards(manager *game.BoardManager, hub *ws.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		type boardRow struct {
			game.BoardSummary
			ViewerConnected bool `json:"viewer_connected"`
		}

		boards := manager.ListBoards()
		rows := make([]boardRow, 0, len(boards))
		for _, b := range boards {
			rows = append(rows, boardRow{BoardSummary: b, ViewerConnected: hub.Connected(b.Token)})
		}

		c.Header("X-Board-Count", strconv.Itoa(len(rows)))
		c.JSON(http.StatusOK, gin.H{"boards": rows, "total": len(rows), "generated_at": time.Now().Format(time.RFC3339)})
	}
}

// AdminCloseBoard closes a board. Boards owned by another instance are closed
// through the board events channel.
func AdminCloseBoard(db *sqlx.DB, manager *game.BoardManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminUsername := c.GetString("admin_username")
		token := c.Param("token")
		route := "/api/v1/admin/boards/" + token

		err := manager.CloseBoard(token, "closed by admin")
		if errors.Is(err, game.ErrBoardNotFound) {
			manager.PublishBoardClosed(token, "closed by admin")
			admin.LogAdminAction(db, adminUsername, c.ClientIP(), route, "close_board", map[string]interface{}{"token": token, "forwarded": true}, true)
			c.JSON(http.StatusAccepted, gin.H{"ok": true, "forwarded": true})
			return
		}
		if err != nil {
			log.Printf("[ADMIN] Failed to close board %s: %v", token, err)
			admin.LogAdminAction(db, adminUsername, c.ClientIP(), route, "close_board", map[string]interface{}{"token": token}, false)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to close board"})
			return
		}

		admin.LogAdminAction(db, adminUsername, c.ClientIP(), route, "close_board", map[string]interface{}{"token": token}, true)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
