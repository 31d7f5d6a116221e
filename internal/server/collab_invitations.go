package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

type createCollabInvitationRequest struct {
	DependentID string `json:"dependent_id"`
}

func (s *Server) CreateCollaboratorInvitation(c *gin.Context) {
	guardianID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createCollabInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	dependentID, err := snowflake.ParseString(strings.TrimSpace(req.DependentID))
	if err != nil {
		AbortWithError(c, newValidationError("dependent_id", "invalid_dependent_id", "invalid dependent_id"))
		return
	}

	invitation, err := s.collabSvc.Create(c.Request.Context(), guardianID, dependentID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": invitation})
}

type acceptCollabInvitationRequest struct {
	Code string `json:"code"`
}

func (s *Server) AcceptCollaboratorInvitation(c *gin.Context) {
	guardianID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req acceptCollabInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		AbortWithError(c, newValidationError("code", "required", "code is required"))
		return
	}

	rel, err := s.collabSvc.Accept(c.Request.Context(), code, guardianID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	linksCreated.Inc()
	c.JSON(http.StatusOK, gin.H{"data": rel})
}

func (s *Server) CancelCollaboratorInvitation(c *gin.Context) {
	guardianID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	invitationID, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.collabSvc.Cancel(c.Request.Context(), invitationID, guardianID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) ListCollaboratorInvitations(c *gin.Context) {
	guardianID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	invitations, err := s.collabSvc.List(c.Request.Context(), guardianID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invitations})
}
