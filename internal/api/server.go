package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mverhage/bothive/internal/api/dto"
	"github.com/mverhage/bothive/internal/api/handler"
	"github.com/mverhage/bothive/internal/api/middleware"
	"github.com/mverhage/bothive/internal/core/service"
	"github.com/mverhage/bothive/pkg/config"
)

type Server struct {
	router *gin.Engine
	srv    *http.Server
	config *config.Config
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, supervisor *service.Supervisor) *Server {
	if !cfg.IsDevMode() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = 8 << 20 // 8 MB

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandlerMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	botHandler := handler.NewBotHandler(supervisor)

	api := router.Group("/api")
	{
		api.GET("/health", healthCheck)
		api.GET("/bots/:username", botHandler.ListBots)

		bot := api.Group("/bot")
		{
			bot.POST("/upload", botHandler.Upload)
			bot.POST("/start/:bot_id", botHandler.Start)
			bot.POST("/stop/:bot_id", botHandler.Stop)
			bot.DELETE("/delete/:bot_id", botHandler.Delete)
			bot.GET("/logs/:bot_id", botHandler.Logs)
			bot.GET("/status/:bot_id", botHandler.Status)
		}
	}

	return &Server{
		router: router,
		config: cfg,
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// Router exposes the gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.APIHost, s.config.APIPort)

	s.srv = &http.Server{
		Addr:           addr,
		Handler:        s.router,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	logrus.Infof("starting HTTP server on %s", addr)
	return s.srv.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv != nil {
		return s.srv.Shutdown(ctx)
	}
	return nil
}
