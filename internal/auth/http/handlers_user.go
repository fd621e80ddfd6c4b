package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/routelens/routelens-backend/internal/auth"
	"github.com/routelens/routelens-backend/internal/users"
)

// Me returns the current user's record.
// WithUser has already upserted the row, so a miss means the caller skipped
// the middleware chain.
func (h *Handler) Me(c *gin.Context) {
	firebaseUID := auth.UserFirebaseUID(c)
	if firebaseUID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "user not authenticated"})
		return
	}

	user, err := h.users.GetByFirebaseUID(c.Request.Context(), firebaseUID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to load user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "user": user})
}
