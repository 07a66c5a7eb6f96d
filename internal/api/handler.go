package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sanjeevkumarraob/study-material-service/internal/document"
	"github.com/sanjeevkumarraob/study-material-service/internal/session"
	"github.com/sanjeevkumarraob/study-material-service/internal/store"
)

// previewRunes bounds the text returned by the upload endpoint; the full
// text stays in the session.
const previewRunes = 1000

// multipartOverhead is the slack allowed on top of the file limit for
// multipart boundaries and headers.
const multipartOverhead = 1 << 20

// Handler handles API requests
type Handler struct {
	docProcessor   *document.Processor
	sessions       *session.Store
	cookies        *session.Cookies
	docs           *store.Store
	logger         *zap.Logger
	maxUploadBytes int64
}

// NewHandler creates a new handler
func NewHandler(
	docProcessor *document.Processor,
	sessions *session.Store,
	cookies *session.Cookies,
	docs *store.Store,
	logger *zap.Logger,
	maxUploadBytes int64,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = document.DefaultMaxDocumentSize
	}
	return &Handler{
		docProcessor:   docProcessor,
		sessions:       sessions,
		cookies:        cookies,
		docs:           docs,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

// HealthCheck provides a simple health check endpoint
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"sessions":  h.sessions.Len(),
	})
}

// UploadDocument extracts the text of an uploaded file into a new chat
// session and returns a preview of it.
func (h *Handler) UploadDocument(c *gin.Context) {
	result, ok := h.processUpload(c)
	if !ok {
		return
	}

	sess, err := h.sessions.Create(result.Outcome.Text, result.Title, string(result.Outcome.Format))
	if err != nil {
		h.logger.Error("failed to create upload session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	if h.cookies != nil {
		if err := h.cookies.SetCurrent(c, sess.ID); err != nil {
			h.logger.Warn("failed to remember upload session", zap.String("sessionId", sess.ID), zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"sessionId": sess.ID,
		"text":      truncateRunes(result.Outcome.Text, previewRunes),
		"format":    result.Outcome.Format,
		"succeeded": result.Outcome.Succeeded,
	})
}

// QuizUpload extracts the full text of an uploaded file for quiz generation.
func (h *Handler) QuizUpload(c *gin.Context) {
	result, ok := h.processUpload(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, result.Outcome)
}

// CurrentUpload returns the session referenced by the caller's cookie.
func (h *Handler) CurrentUpload(c *gin.Context) {
	if h.cookies == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No current upload"})
		return
	}
	id, err := h.cookies.Current(c)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No current upload"})
		return
	}
	h.writeSession(c, id)
}

// GetUpload returns an upload session by id.
func (h *Handler) GetUpload(c *gin.Context) {
	h.writeSession(c, c.Param("id"))
}

type messageRequest struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required"`
}

// AppendUploadMessage records one chat turn against an upload session.
func (h *Handler) AppendUploadMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role (user or assistant) and content are required"})
		return
	}

	id := c.Param("id")
	err := h.sessions.AppendMessage(id, session.Message{Role: req.Role, Content: req.Content})
	switch {
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, session.ErrSessionExpired):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	case err != nil:
		h.logger.Error("failed to append message", zap.String("sessionId", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save message"})
		return
	}

	h.writeSession(c, id)
}

// DeleteUpload discards an upload session and its extracted text.
func (h *Handler) DeleteUpload(c *gin.Context) {
	id := c.Param("id")
	if err := h.sessions.Delete(id); err != nil {
		h.logger.Error("failed to delete upload session", zap.String("sessionId", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete session"})
		return
	}
	c.Status(http.StatusNoContent)
}

type createDocRequest struct {
	SessionID string `json:"sessionId"`
	Title     string `json:"title"`
	Content   string `json:"content"`
}

// CreateStudyDoc saves a study document for the current user.
func (h *Handler) CreateStudyDoc(c *gin.Context) {
	var req createDocRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	doc, err := h.docs.Create(c.Request.Context(), store.Document{
		SessionID: req.SessionID,
		UserID:    userID(c),
		Title:     req.Title,
		Content:   req.Content,
	})
	if errors.Is(err, store.ErrEmptyContent) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content is required"})
		return
	}
	if err != nil {
		h.logger.Error("failed to save study document", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save document"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": doc.ID})
}

// ListStudyDocs returns the most recent study documents of the current user.
func (h *Handler) ListStudyDocs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	docs, err := h.docs.ListRecent(c.Request.Context(), userID(c), limit)
	if err != nil {
		h.logger.Error("failed to list study documents", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list documents"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// GetStudyDoc returns one study document.
func (h *Handler) GetStudyDoc(c *gin.Context) {
	doc, err := h.docs.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to load study document", zap.String("id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load document"})
		return
	}

	if uid := userID(c); uid != "" && doc.UserID != "" && doc.UserID != uid {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}

	c.JSON(http.StatusOK, doc)
}

// processUpload reads the multipart "file" field and extracts its text. It
// writes the error response itself and reports whether the caller should
// continue.
func (h *Handler) processUpload(c *gin.Context) (*document.ProcessorResult, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)

	file, header, err := c.Request.FormFile("file")
	if c.Request.MultipartForm != nil {
		defer c.Request.MultipartForm.RemoveAll()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File is too large"})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is required"})
		return nil, false
	}
	defer file.Close()

	result, err := h.docProcessor.ProcessFile(c.Request.Context(), file, header)
	if errors.Is(err, document.ErrFileTooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File is too large"})
		return nil, false
	}
	if err != nil {
		h.logger.Error("document processing failed", zap.String("filename", header.Filename), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process document"})
		return nil, false
	}

	return result, true
}

func (h *Handler) writeSession(c *gin.Context, id string) {
	sess, err := h.sessions.Get(id)
	switch {
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, session.ErrSessionExpired):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	case err != nil:
		h.logger.Error("failed to load upload session", zap.String("sessionId", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessionId": sess.ID,
		"filename":  sess.Filename,
		"format":    sess.Format,
		"text":      sess.FileText,
		"history":   sess.History,
	})
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
