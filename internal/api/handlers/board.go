package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/carrom/internal/auth"
	"github.com/playmatatu/carrom/internal/game"
	"github.com/playmatatu/carrom/internal/telemetry"
)

// CreateBoard lays out a new board and issues the viewer session for it
func CreateBoard(manager *game.BoardManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := manager.CreateBoard()
		if errors.Is(err, game.ErrTooManyBoards) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Board limit reached, try again later"})
			return
		}
		if err != nil {
			log.Printf("[BOARD] CreateBoard failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		signed, claims, err := auth.IssueViewerToken(manager.GetConfig().JWTSecret, s.Token, manager.SessionTTL())
		if err != nil {
			log.Printf("[BOARD] Failed to sign session for %s: %v", s.Token, err)
			_ = manager.CloseBoard(s.Token, "session error")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"board_id":    s.ID,
			"board_token": s.Token,
			"session":     signed,
			"viewer_id":   claims.ViewerID,
			"expires_at":  claims.ExpiresAt.Time.Format(time.RFC3339),
			"ws_url":      fmt.Sprintf("/api/v1/boards/%s/ws?session=%s", s.Token, signed),
		})
	}
}

// RequireViewer checks the viewer session for the board in the path. The
// session may come as a bearer token or a session query parameter.
func RequireViewer(manager *game.BoardManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("session")
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimPrefix(h, "Bearer ")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
			return
		}

		claims, err := auth.AuthorizeBoard(manager.GetConfig().JWTSecret, token, c.Param("token"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set("viewer_id", claims.ViewerID)
		c.Next()
	}
}

// GetBoardState returns the current board snapshot
func GetBoardState(manager *game.BoardManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := manager.GetBoardByToken(c.Param("token"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Board not found"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		snap, err := s.Snapshot(ctx)
		if errors.Is(err, game.ErrBoardClosed) {
			c.JSON(http.StatusGone, gin.H{"error": "Board closed"})
			return
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Board busy"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"board_id":   s.ID,
			"status":     s.Status(),
			"created_at": s.CreatedAt.Format(time.RFC3339),
			"board":      snap,
		})
	}
}

// GetBoardLaunches returns the recent launch log of a board
func GetBoardLaunches(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Launch log unavailable"})
			return
		}

		limit := queryInt(c, "limit", 50, 500)
		launches, err := telemetry.RecentLaunches(db, c.Param("token"), limit)
		if err != nil {
			log.Printf("[DB] Failed to fetch launches for %s: %v", c.Param("token"), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch launches"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"launches": launches, "count": len(launches)})
	}
}
