package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"webcam-photobooth/internal/application"
	"webcam-photobooth/internal/domain"
	"webcam-photobooth/internal/infrastructure/streaming"
)

// Session то, что HTTP слой использует от сессии съемки
type Session interface {
	streaming.Controller
	Photo() *domain.Photo
}

// Server HTTP интерфейс фотобудки
type Server struct {
	session Session
	hub     *streaming.Hub
	logger  application.Logger
}

// NewServer создает HTTP интерфейс. hub может быть nil, тогда /ws не регистрируется.
func NewServer(session Session, hub *streaming.Hub, logger application.Logger) *Server {
	return &Server{
		session: session,
		hub:     hub,
		logger:  logger,
	}
}

// Router собирает маршруты gin
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.logRequests())

	router.GET("/", s.index)
	if s.hub != nil {
		router.GET("/ws", gin.WrapF(s.hub.ServeWS))
	}

	api := router.Group("/api")
	api.GET("/session", s.getSession)
	api.POST("/session/:action", s.postAction)
	api.GET("/photo", s.getPhoto)

	return router
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

func (s *Server) index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexPage))
}

func (s *Server) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.Status())
}

func (s *Server) postAction(c *gin.Context) {
	action := c.Param("action")
	if err := streaming.Dispatch(s.session, action); err != nil {
		c.JSON(statusCode(err), gin.H{"error": err.Error(), "status": s.session.Status()})
		return
	}
	c.JSON(http.StatusOK, s.session.Status())
}

func (s *Server) getPhoto(c *gin.Context) {
	photo := s.session.Photo()
	if photo == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "снимка нет"})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, photo.ContentType, photo.Data)
}

// statusCode переводит ошибку сессии в HTTP статус
func statusCode(err error) int {
	switch {
	case errors.Is(err, streaming.ErrUnknownAction):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrIllegalTransition), errors.Is(err, domain.ErrFrameNotReady):
		return http.StatusConflict
	case errors.Is(err, domain.ErrSessionClosed):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}
