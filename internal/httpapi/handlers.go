package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"operator-console/internal/backend"
	"operator-console/internal/session"
	"operator-console/internal/view"

	"github.com/gin-gonic/gin"
)

// CallAPI is the slice of the backend client used for per-call detail
// operations that bypass the list controller.
type CallAPI interface {
	GetCall(ctx context.Context, id string) (backend.Call, error)
	AddNote(ctx context.Context, id, content string) (backend.Call, error)
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal modules, return JSON.
type Handlers struct {
	Session *session.Manager
	View    *view.Controller
	Calls   CallAPI
}

/* ===================== AUTH ===================== */

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates the operator against the upstream and loads the first
// page of calls. Failures surface as a generic 401; the upstream's reason is
// logged, not echoed.
func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Username == "" || req.Password == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}
	if _, err := h.Session.Login(c.Request.Context(), req.Username, req.Password); err != nil {
		c.Error(err)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login failed"})
		return
	}
	if err := h.View.Refresh(c.Request.Context()); err != nil {
		c.Error(err)
	}
	c.JSON(http.StatusOK, h.View.Snapshot())
}

func (h Handlers) Logout(c *gin.Context) {
	if err := h.Session.Logout(c.Request.Context()); err != nil {
		c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

/* ===================== CALL LIST ===================== */

func (h Handlers) ListView(c *gin.Context) {
	c.JSON(http.StatusOK, h.View.Snapshot())
}

func (h Handlers) RefreshView(c *gin.Context) {
	if err := h.View.Refresh(c.Request.Context()); err != nil {
		abortUpstream(c, err)
		return
	}
	c.JSON(http.StatusOK, h.View.Snapshot())
}

type pageRequest struct {
	Page int `json:"page"`
}

func (h Handlers) SetPage(c *gin.Context) {
	var req pageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := h.View.SetPage(c.Request.Context(), req.Page); err != nil {
		abortUpstream(c, err)
		return
	}
	c.JSON(http.StatusOK, h.View.Snapshot())
}

type filterRequest struct {
	Filter string `json:"filter"`
}

func (h Handlers) SetFilter(c *gin.Context) {
	var req filterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	f, err := view.ParseFilter(req.Filter)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "filter must be All, Archived or Unarchived"})
		return
	}
	if err := h.View.SetFilter(c.Request.Context(), f); err != nil {
		abortUpstream(c, err)
		return
	}
	c.JSON(http.StatusOK, h.View.Snapshot())
}

type groupRequest struct {
	Enabled bool `json:"enabled"`
}

func (h Handlers) SetGroupByDate(c *gin.Context) {
	var req groupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	h.View.SetGroupByDate(req.Enabled)
	c.JSON(http.StatusOK, h.View.Snapshot())
}

type dateRangeRequest struct {
	From *time.Time `json:"from"`
	To   *time.Time `json:"to"`
}

func (h Handlers) SetDateRange(c *gin.Context) {
	var req dateRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.From != nil && req.To != nil && req.To.Before(*req.From) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to must not precede from"})
		return
	}
	if err := h.View.SetDateRange(c.Request.Context(), req.From, req.To); err != nil {
		abortUpstream(c, err)
		return
	}
	c.JSON(http.StatusOK, h.View.Snapshot())
}

type selectRequest struct {
	ID string `json:"id"`
}

func (h Handlers) ToggleSelect(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "id required"})
		return
	}
	h.View.ToggleSelect(req.ID)
	c.JSON(http.StatusOK, h.View.Snapshot())
}

func (h Handlers) ArchiveSelected(c *gin.Context) {
	if err := h.View.ToggleArchiveSelected(c.Request.Context()); err != nil {
		abortUpstream(c, err)
		return
	}
	c.JSON(http.StatusOK, h.View.Snapshot())
}

/* ===================== SINGLE CALL ===================== */

func (h Handlers) GetCall(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "call id required"})
		return
	}
	call, err := h.Calls.GetCall(c.Request.Context(), id)
	if err != nil {
		abortUpstream(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"call":           call,
		"duration_label": view.FormatDuration(call.DurationSeconds),
	})
}

func (h Handlers) ToggleArchive(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "call id required"})
		return
	}
	if err := h.View.ToggleArchive(c.Request.Context(), id); err != nil {
		abortUpstream(c, err)
		return
	}
	c.JSON(http.StatusOK, h.View.Snapshot())
}

type noteRequest struct {
	Content string `json:"content"`
}

// AddNote appends a note and folds the authoritative upstream record back
// into the cached page.
func (h Handlers) AddNote(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "call id required"})
		return
	}
	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Content == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "content required"})
		return
	}
	call, err := h.Calls.AddNote(c.Request.Context(), id, req.Content)
	if err != nil {
		abortUpstream(c, err)
		return
	}
	h.View.ApplyUpdate(call)
	c.JSON(http.StatusOK, call)
}

/* ===================== ERROR MAPPING ===================== */

// abortUpstream maps repository errors onto console status codes: auth
// failures re-surface as 401, unknown ids as 404, anything else as a bad
// gateway since the upstream is the one that misbehaved.
func abortUpstream(c *gin.Context, err error) {
	c.Error(err)
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired or unauthorized"})
	case errors.Is(err, backend.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
	default:
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "upstream request failed"})
	}
}
