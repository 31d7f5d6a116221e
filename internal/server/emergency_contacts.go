package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	contactdomain "github.com/guardline/guardline/internal/emergencycontact/domain"
)

func (s *Server) ListEmergencyContacts(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	contacts, err := s.contactSvc.List(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": contacts})
}

type createContactRequest struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Relationship string `json:"relationship"`
	Priority     int    `json:"priority"`
}

func (s *Server) CreateEmergencyContact(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	contact, err := s.contactSvc.Create(c.Request.Context(), userID, contactdomain.CreateContactRequest{
		Name:     strings.TrimSpace(req.Name),
		Phone:    strings.TrimSpace(req.Phone),
		Email:    strings.TrimSpace(req.Email),
		Label:    strings.TrimSpace(req.Relationship),
		Priority: req.Priority,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": contact})
}

type updateContactRequest struct {
	Name         *string `json:"name"`
	Phone        *string `json:"phone"`
	Email        *string `json:"email"`
	Relationship *string `json:"relationship"`
	Priority     *int    `json:"priority"`
	IsActive     *bool   `json:"is_active"`
}

func (s *Server) UpdateEmergencyContact(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	contactID, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	contact, err := s.contactSvc.Update(c.Request.Context(), userID, contactID, contactdomain.UpdateContactRequest{
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    req.Email,
		Label:    req.Relationship,
		Priority: req.Priority,
		IsActive: req.IsActive,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": contact})
}

func (s *Server) DeleteEmergencyContact(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	contactID, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.contactSvc.Delete(c.Request.Context(), userID, contactID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func isContactValidationError(err error) bool {
	switch err {
	case contactdomain.ErrInvalidName,
		contactdomain.ErrInvalidPhone:
		return true
	default:
		return false
	}
}
