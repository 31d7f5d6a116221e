package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	dependentdomain "github.com/guardline/guardline/internal/dependent/domain"
)

type createDependentRequest struct {
	Name     string `json:"name"`
	Relation string `json:"relation"`
	Age      int    `json:"age"`
}

func (s *Server) CreateDependentStub(c *gin.Context) {
	guardianID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createDependentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	stub, err := s.dependentSvc.Create(c.Request.Context(), guardianID, dependentdomain.CreateStubRequest{
		Name:     strings.TrimSpace(req.Name),
		Relation: strings.TrimSpace(req.Relation),
		Age:      req.Age,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": stub})
}

func (s *Server) ListDependentStubs(c *gin.Context) {
	guardianID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	stubs, err := s.dependentSvc.List(c.Request.Context(), guardianID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stubs})
}

func (s *Server) DeleteDependentStub(c *gin.Context) {
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

	if err := s.dependentSvc.Delete(c.Request.Context(), guardianID, stubID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func isDependentValidationError(err error) bool {
	switch err {
	case dependentdomain.ErrInvalidName,
		dependentdomain.ErrInvalidRelation,
		dependentdomain.ErrInvalidAge:
		return true
	default:
		return false
	}
}
