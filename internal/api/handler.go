package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"ticket-service/internal/auth"
	"ticket-service/internal/models"
	"ticket-service/internal/service"
	"ticket-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// TicketService is the ticket use case the handlers call
type TicketService interface {
	Purchase(ctx context.Context, caller auth.Identity, req service.PurchaseRequest) (*models.PurchaseResult, error)
	ListForUser(ctx context.Context, caller auth.Identity) ([]models.TicketDetails, error)
	GetForUser(ctx context.Context, caller auth.Identity, ticketID int64) (*models.TicketDetails, error)
}

// EventService is the catalog use case the handlers call
type EventService interface {
	List(ctx context.Context, f models.EventFilter) (*service.EventPage, error)
	Get(ctx context.Context, id int64) (*models.EventDetails, error)
	Create(ctx context.Context, organizerID int64, in service.EventInput) (*models.Event, error)
	Update(ctx context.Context, id int64, in service.EventInput) error
	Delete(ctx context.Context, id int64) error
}

// CategoryService is the category use case the handlers call
type CategoryService interface {
	List(ctx context.Context) ([]models.Category, error)
	Create(ctx context.Context, in service.CategoryInput) (*models.Category, error)
	Update(ctx context.Context, id int64, in service.CategoryInput) error
	Delete(ctx context.Context, id int64) error
}

// UserService is the account use case the handlers call
type UserService interface {
	Register(ctx context.Context, req service.RegisterRequest) (*service.AuthResult, error)
	Login(ctx context.Context, req service.LoginRequest) (*service.AuthResult, error)
	Profile(ctx context.Context, caller auth.Identity) (*models.User, error)
	UpdateProfile(ctx context.Context, caller auth.Identity, req service.ProfileUpdate) error
	List(ctx context.Context) ([]models.User, error)
	SetRole(ctx context.Context, userID, roleID int64) error
}

// TokenVerifier turns a bearer token into an identity
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles what the handlers depend on
type Services struct {
	Tickets    TicketService
	Events     EventService
	Categories CategoryService
	Users      UserService
	Tokens     TokenVerifier
	Database   Pinger
	Cache      Pinger
}

// Handler contains HTTP handlers
type Handler struct {
	tickets    TicketService
	events     EventService
	categories CategoryService
	users      UserService
	tokens     TokenVerifier
	db         Pinger
	cache      Pinger
	logger     *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(s Services) *Handler {
	return &Handler{
		tickets:    s.Tickets,
		events:     s.Events,
		categories: s.Categories,
		users:      s.Users,
		tokens:     s.Tokens,
		db:         s.Database,
		cache:      s.Cache,
		logger:     util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/", h.root)
	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", h.register)
		authRoutes.POST("/login", h.login)
	}

	events := api.Group("/events")
	{
		events.GET("", h.listEvents)
		events.GET("/:id", h.getEvent)
		events.POST("", h.authenticate(), h.require(auth.ManageEvents), h.createEvent)
		events.PUT("/:id", h.authenticate(), h.require(auth.ManageEvents), h.updateEvent)
		events.DELETE("/:id", h.authenticate(), h.require(auth.ManageEvents), h.deleteEvent)
	}

	tickets := api.Group("/tickets", h.authenticate())
	{
		tickets.POST("", h.purchaseTickets)
		tickets.GET("/user", h.listTickets)
		tickets.GET("/:id", h.getTicket)
	}

	categories := api.Group("/categories")
	{
		categories.GET("", h.listCategories)
		categories.POST("", h.authenticate(), h.require(auth.ManageCategories), h.createCategory)
		categories.PUT("/:id", h.authenticate(), h.require(auth.ManageCategories), h.updateCategory)
		categories.DELETE("/:id", h.authenticate(), h.require(auth.ManageCategories), h.deleteCategory)
	}

	users := api.Group("/users", h.authenticate())
	{
		users.GET("", h.require(auth.ManageUsers), h.listUsers)
		users.GET("/profile", h.getProfile)
		users.PUT("/profile", h.updateProfile)
		users.PUT("/:id/role", h.require(auth.ManageUsers), h.updateUserRole)
	}

	router.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, "Route not found")
	})
}

func (h *Handler) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Event Management API is running",
	})
}

// healthCheck reports liveness plus database and cache connectivity
func (h *Handler) healthCheck(c *gin.Context) {
	ctx := c.Request.Context()

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"server":   "running",
		"database": connectivity(ping(ctx, h.db)),
		"cache":    connectivity(ping(ctx, h.cache)),
		"time":     time.Now().Unix(),
	})
}

// readinessCheck fails while the database or Redis is unreachable
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx := c.Request.Context()
	database, cache := ping(ctx, h.db), ping(ctx, h.cache)
	if database != nil || cache != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unavailable",
			"database": connectivity(database),
			"cache":    connectivity(cache),
			"time":     time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func ping(ctx context.Context, p Pinger) error {
	if p == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.Ping(ctx)
}

func connectivity(err error) string {
	if err != nil {
		return "disconnected"
	}
	return "connected"
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		util.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		util.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}
