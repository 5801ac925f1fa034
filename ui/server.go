package ui

import (
	"net/http"
	"strconv"

	"datachat/app"
	"datachat/domain/chat"
	"datachat/domain/core"
	"datachat/internal"
	"datachat/internal/errors"
	"datachat/ports"

	"github.com/gin-gonic/gin"
)

const defaultListLimit = 50

// Server is the JSON API surface over the upload and chat services
type Server struct {
	router  *gin.Engine
	uploads *app.UploadService
	chats   *app.ChatService
	users   ports.UserRepository
	logger  *internal.Logger
}

// NewServer creates a new web server instance
func NewServer(ginMode string, uploads *app.UploadService, chats *app.ChatService, users ports.UserRepository, logger *internal.Logger) *Server {
	gin.SetMode(ginMode)
	s := &Server{
		router:  gin.New(),
		uploads: uploads,
		chats:   chats,
		users:   users,
		logger:  logger,
	}
	s.router.Use(gin.Recovery())
	s.setupRoutes()
	return s
}

// Run starts the HTTP server on the given address
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Handler exposes the router for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api", s.requireUser)
	{
		api.POST("/datasets", s.handleUploadDataset)
		api.GET("/datasets", s.handleListDatasets)
		api.GET("/datasets/:id", s.handleGetDataset)
		api.DELETE("/datasets/:id", s.handleDeleteDataset)

		api.GET("/sessions", s.handleListSessions)
		api.GET("/sessions/:id", s.handleGetSession)
		api.DELETE("/sessions/:id", s.handleDeleteSession)
		api.POST("/sessions/:id/queries", s.handleAsk)
	}
}

// requireUser resolves the acting user from the X-User-ID header. There is
// no authentication layer; the header is trusted as-is, and unknown ids are
// provisioned on first use so ownership rows exist for the cascades.
func (s *Server) requireUser(c *gin.Context) {
	raw := c.GetHeader("X-User-ID")
	if raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "X-User-ID header is required"})
		return
	}
	userID, err := core.ParseID(raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "X-User-ID is not a valid id"})
		return
	}

	if _, err := s.users.GetByID(c.Request.Context(), userID); err != nil {
		if !core.IsNotFoundError(err) {
			s.respondError(c, err)
			c.Abort()
			return
		}
		user := &ports.User{ID: userID, Username: "user-" + userID.String()}
		if err := s.users.Create(c.Request.Context(), user); err != nil {
			s.respondError(c, err)
			c.Abort()
			return
		}
		s.logger.Info("[ui] provisioned user %s", userID)
	}

	c.Set("userID", userID)
	c.Next()
}

func currentUser(c *gin.Context) core.ID {
	return c.MustGet("userID").(core.ID)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleUploadDataset(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open uploaded file"})
		return
	}
	defer src.Close()

	result, err := s.uploads.Upload(c.Request.Context(), currentUser(c), src, file.Size, file.Filename)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (s *Server) handleListDatasets(c *gin.Context) {
	limit := queryInt(c, "limit", defaultListLimit)
	offset := queryInt(c, "offset", 0)

	list, err := s.uploads.ListDatasets(c.Request.Context(), currentUser(c), limit, offset)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"datasets": list})
}

func (s *Server) handleGetDataset(c *gin.Context) {
	id, err := core.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dataset id"})
		return
	}

	ds, err := s.uploads.GetDataset(c.Request.Context(), currentUser(c), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ds)
}

func (s *Server) handleDeleteDataset(c *gin.Context) {
	id, err := core.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dataset id"})
		return
	}

	if err := s.uploads.DeleteDataset(c.Request.Context(), currentUser(c), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleListSessions(c *gin.Context) {
	limit := queryInt(c, "limit", defaultListLimit)

	list, err := s.chats.ListSessions(c.Request.Context(), currentUser(c), limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": list})
}

func (s *Server) handleGetSession(c *gin.Context) {
	id, err := core.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}
	userID := currentUser(c)

	session, err := s.chats.GetSession(c.Request.Context(), userID, id)
	if err != nil {
		s.respondError(c, err)
		return
	}

	history, err := s.chats.History(c.Request.Context(), userID, id)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session": session,
		"queries": renderLogs(history),
	})
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	id, err := core.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	if err := s.chats.DeleteSession(c.Request.Context(), currentUser(c), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type askRequest struct {
	Prompt string `json:"prompt"`
}

func (s *Server) handleAsk(c *gin.Context) {
	id, err := core.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be JSON with a 'prompt' field"})
		return
	}

	entry, err := s.chats.Ask(c.Request.Context(), currentUser(c), id, req.Prompt)
	if err != nil {
		s.respondError(c, err)
		return
	}

	// An error-status entry is still a 201: the turn was executed and logged.
	c.JSON(http.StatusCreated, renderLog(entry))
}

// respondError maps domain and application errors onto HTTP statuses
func (s *Server) respondError(c *gin.Context, err error) {
	switch {
	case core.IsNotFoundError(err), errors.HasCode(err, errors.CodeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.HasCode(err, errors.CodeValidationError), errors.HasCode(err, errors.CodeInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.HasCode(err, errors.CodeUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		s.logger.Error("[ui] request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func renderLogs(logs []*chat.QueryLog) []gin.H {
	out := make([]gin.H, 0, len(logs))
	for _, entry := range logs {
		out = append(out, renderLog(entry))
	}
	return out
}

// renderLog shapes one query log for the API, adding an HTML rendering of
// the markdown answer for clients that display rich text.
func renderLog(entry *chat.QueryLog) gin.H {
	h := gin.H{
		"id":         entry.ID,
		"session_id": entry.SessionID,
		"prompt":     entry.Prompt,
		"status":     entry.Status,
		"created_at": entry.CreatedAt,
	}
	if entry.Status == chat.QuerySuccess {
		h["response_text"] = entry.ResponseText
		h["response_html"] = RenderMarkdown(entry.ResponseText)
		if len(entry.ResponsePlot) > 0 {
			h["response_plot"] = entry.ResponsePlot
		}
	} else {
		h["error_message"] = entry.ErrorMessage
	}
	return h
}
