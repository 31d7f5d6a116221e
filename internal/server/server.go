package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"gorm.io/gorm"

	accountdomain "github.com/guardline/guardline/internal/account/domain"
	collabdomain "github.com/guardline/guardline/internal/collabinvite/domain"
	"github.com/guardline/guardline/internal/config"
	dependentdomain "github.com/guardline/guardline/internal/dependent/domain"
	contactdomain "github.com/guardline/guardline/internal/emergencycontact/domain"
	invitationdomain "github.com/guardline/guardline/internal/invitation/domain"
	"github.com/guardline/guardline/internal/ratelimit"
	relationshipdomain "github.com/guardline/guardline/internal/relationship/domain"
)

var Module = fx.Options(
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	db     *gorm.DB

	accountSvc    accountdomain.Service
	dependentSvc  dependentdomain.Service
	invitationSvc invitationdomain.Service
	relationSvc   relationshipdomain.Service
	collabSvc     collabdomain.Service
	contactSvc    contactdomain.Service
	scanLimiter   *ratelimit.ScanLimiter
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	DB            *gorm.DB
	AccountSvc    accountdomain.Service
	DependentSvc  dependentdomain.Service
	InvitationSvc invitationdomain.Service
	RelationSvc   relationshipdomain.Service
	CollabSvc     collabdomain.Service
	ContactSvc    contactdomain.Service
	ScanLimiter   *ratelimit.ScanLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		db:            p.DB,
		accountSvc:    p.AccountSvc,
		dependentSvc:  p.DependentSvc,
		invitationSvc: p.InvitationSvc,
		relationSvc:   p.RelationSvc,
		collabSvc:     p.CollabSvc,
		contactSvc:    p.ContactSvc,
		scanLimiter:   p.ScanLimiter,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/v1/auth")

	auth.POST("/register", s.Register)
	auth.POST("/login", s.Login)
	auth.POST("/logout", s.AuthRequired(), s.Logout)
	auth.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1")
	v1.Use(s.AuthRequired())

	dependents := v1.Group("/dependents", RequireRole(accountdomain.RoleGuardian))
	dependents.POST("", s.CreateDependentStub)
	dependents.GET("", s.ListDependentStubs)
	dependents.DELETE("/:id", s.DeleteDependentStub)
	dependents.POST("/:id/invitations", s.GenerateInvitation)

	invitations := v1.Group("/invitations")
	invitations.POST("/scan", s.ScanInvitation)
	invitations.GET("/pending", RequireRole(accountdomain.RoleGuardian), s.ListPendingApprovals)
	invitations.GET("/token/:token", RequireRole(accountdomain.RoleGuardian), s.GetInvitationByToken)
	invitations.POST("/:id/approve", RequireRole(accountdomain.RoleGuardian), s.ApproveInvitation)
	invitations.POST("/:id/reject", RequireRole(accountdomain.RoleGuardian), s.RejectInvitation)

	relationships := v1.Group("/relationships")
	relationships.GET("", s.ListRelationships)
	relationships.DELETE("/:id", s.RevokeRelationship)

	collab := v1.Group("/collaborator-invitations", RequireRole(accountdomain.RoleGuardian))
	collab.POST("", s.CreateCollaboratorInvitation)
	collab.GET("", s.ListCollaboratorInvitations)
	collab.POST("/accept", s.AcceptCollaboratorInvitation)
	collab.DELETE("/:id", s.CancelCollaboratorInvitation)

	contacts := v1.Group("/emergency-contacts")
	contacts.GET("", s.ListEmergencyContacts)
	contacts.POST("", s.CreateEmergencyContact)
	contacts.PATCH("/:id", s.UpdateEmergencyContact)
	contacts.DELETE("/:id", s.DeleteEmergencyContact)
}
