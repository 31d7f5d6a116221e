package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	invitationdomain "github.com/guardline/guardline/internal/invitation/domain"
)

func (s *Server) GenerateInvitation(c *gin.Context) {
	guardianID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	stubID, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	invitation, err := s.invitationSvc.Generate(c.Request.Context(), guardianID, stubID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": invitation})
}

type scanRequest struct {
	Token string `json:"token"`
}

func (s *Server) ScanInvitation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if !s.scanLimiter.Allow(c.Request.Context(), userID.String()) {
		scanAttempts.WithLabelValues("rate_limited").Inc()
		AbortWithError(c, ErrTooManyRequests)
		return
	}

	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	token := strings.TrimSpace(req.Token)
	if token == "" {
		AbortWithError(c, newValidationError("token", "required", "token is required"))
		return
	}

	meta := map[string]any{
		"user_agent": c.Request.UserAgent(),
		"client_ip":  c.ClientIP(),
	}

	result, err := s.invitationSvc.Scan(c.Request.Context(), token, userID, meta)
	if err != nil {
		scanAttempts.WithLabelValues(scanOutcome(err)).Inc()
		AbortWithError(c, err)
		return
	}

	scanAttempts.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func scanOutcome(err error) string {
	switch {
	case errors.Is(err, invitationdomain.ErrNotFound):
		return "not_found"
	case errors.Is(err, invitationdomain.ErrExpired):
		return "expired"
	case errors.Is(err, invitationdomain.ErrAlreadyProcessed):
		return "already_processed"
	case errors.Is(err, invitationdomain.ErrSelfScan):
		return "self_scan"
	default:
		return "error"
	}
}

func (s *Server) ApproveInvitation(c *gin.Context) {
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

	result, err := s.invitationSvc.Approve(c.Request.Context(), invitationID, guardianID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if !result.AlreadyLinked {
		linksCreated.Inc()
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) RejectInvitation(c *gin.Context) {
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

	if err := s.invitationSvc.Reject(c.Request.Context(), invitationID, guardianID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) GetInvitationByToken(c *gin.Context) {
	guardianID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	token := strings.TrimSpace(c.Param("token"))
	invitation, err := s.invitationSvc.GetByToken(c.Request.Context(), guardianID, token)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if invitation == nil {
		AbortWithError(c, invitationdomain.ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invitation})
}

func (s *Server) ListPendingApprovals(c *gin.Context) {
	guardianID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	pending, err := s.invitationSvc.ListPendingApprovals(c.Request.Context(), guardianID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": pending})
}
