package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	accountdomain "github.com/guardline/guardline/internal/account/domain"
	"github.com/guardline/guardline/internal/authctx"
)

// ListRelationships returns the caller's side of the link graph: linked
// dependents for guardians, linked guardians for dependent roles.
func (s *Server) ListRelationships(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	role, _ := authctx.RoleFromContext(c.Request.Context())
	if accountdomain.IsDependentRole(role) {
		links, err := s.relationSvc.ListForDependent(c.Request.Context(), userID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": links})
		return
	}

	links, err := s.relationSvc.ListForGuardian(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": links})
}

func (s *Server) RevokeRelationship(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	relationshipID, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.relationSvc.Revoke(c.Request.Context(), userID, relationshipID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
