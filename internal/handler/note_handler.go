package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"notes-service/internal/middleware"
	"notes-service/internal/model"
	"notes-service/internal/store"
	"notes-service/pkg/logger"
	"notes-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

func validateNoteInput(title, content string) string {
	if strings.TrimSpace(title) == "" {
		return "title is required"
	}
	if len(title) > model.MaxTitleLength {
		return "title must be 200 characters or less"
	}
	if strings.TrimSpace(content) == "" {
		return "content is required"
	}
	if len(content) > model.MaxContentLength {
		return "content must be 10,000 characters or less"
	}
	return ""
}

// authorsByID loads the tenant's users keyed by ID for note enrichment
func (h *Handler) authorsByID(tenantID uint) (map[uint]*model.User, error) {
	users, err := h.store.ListUsers(tenantID)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*model.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}
	return byID, nil
}

// ListNotes returns the tenant's notes, sticky first then newest, paginated
func (h *Handler) ListNotes(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordNoteOperation("list")

	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	totalNotes, err := h.store.CountNotes(p.TenantID)
	if err != nil {
		log.Error("Failed to count notes", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to get notes"})
	}

	notes, err := h.store.ListNotes(p.TenantID, (page-1)*limit, limit)
	if err != nil {
		log.Error("Failed to list notes", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to get notes"})
	}

	authors, err := h.authorsByID(p.TenantID)
	if err != nil {
		log.Error("Failed to load note authors", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to get notes"})
	}

	formatted := make([]echo.Map, 0, len(notes))
	for i := range notes {
		formatted = append(formatted, noteJSON(&notes[i], authors[notes[i].AuthorID]))
	}

	totalPages := int((totalNotes + int64(limit) - 1) / int64(limit))

	return c.JSON(http.StatusOK, echo.Map{
		"notes": formatted,
		"pagination": echo.Map{
			"currentPage": page,
			"totalPages":  totalPages,
			"totalNotes":  totalNotes,
			"hasNextPage": page < totalPages,
			"hasPrevPage": page > 1,
		},
	})
}

// CreateNote validates input, runs the subscription gate and inserts the
// note stamped with the principal's user and tenant.
func (h *Handler) CreateNote(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordNoteOperation("create")

	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		Title     string  `json:"title"`
		Content   string  `json:"content"`
		IsSticky  bool    `json:"isSticky"`
		BgColor   *string `json:"bgColor"`
		TextColor *string `json:"textColor"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if msg := validateNoteInput(req.Title, req.Content); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	// Gate failure must abort before any insert
	canCreate, noteCount, err := h.gate.CanCreate(p.TenantID)
	if err != nil {
		log.Error("Failed to evaluate note limit", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create note"})
	}
	if !canCreate {
		prometheus.LimitRejectionCounter.Inc()
		log.Info("Note limit reached",
			zap.Uint("tenant_id", p.TenantID),
			zap.Int64("note_count", noteCount))
		return c.JSON(http.StatusForbidden, echo.Map{
			"error":        "Note limit reached. Upgrade to Pro for unlimited notes.",
			"limitReached": true,
			"noteCount":    noteCount,
			"noteLimit":    h.gate.Limit(model.PlanFree),
			"upgradeUrl":   "/tenants/" + p.TenantSlug + "/upgrade",
		})
	}

	note := model.Note{
		Title:     strings.TrimSpace(req.Title),
		Content:   strings.TrimSpace(req.Content),
		AuthorID:  p.UserID,
		TenantID:  p.TenantID,
		IsSticky:  req.IsSticky,
		BgColor:   req.BgColor,
		TextColor: req.TextColor,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := h.store.CreateNote(&note); err != nil {
		log.Error("Failed to create note", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create note"})
	}

	author, _ := h.store.FindUserByID(p.UserID)

	log.Info("Note created",
		zap.Uint("note_id", note.ID),
		zap.Uint("tenant_id", note.TenantID))

	return c.JSON(http.StatusCreated, echo.Map{"note": noteJSON(&note, author)})
}

// GetNote returns one note. A note in another tenant is indistinguishable
// from a missing one.
func (h *Handler) GetNote(c echo.Context) error {
	prometheus.RecordNoteOperation("get")

	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	noteID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid note ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	note, err := h.store.FindNote(p.TenantID, uint(noteID))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "note not found"})
	}

	author, _ := h.store.FindUserByID(note.AuthorID)
	return c.JSON(http.StatusOK, echo.Map{"note": noteJSON(note, author)})
}

// UpdateNote applies tenant isolation first, then the ownership gate: only
// the author may edit, admins included.
func (h *Handler) UpdateNote(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordNoteOperation("update")

	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	noteID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid note ID"})
	}

	var req struct {
		Title     string  `json:"title"`
		Content   string  `json:"content"`
		IsSticky  *bool   `json:"isSticky"`
		BgColor   *string `json:"bgColor"`
		TextColor *string `json:"textColor"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if msg := validateNoteInput(req.Title, req.Content); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	note, err := h.store.FindNote(p.TenantID, uint(noteID))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "note not found"})
	}

	if note.AuthorID != p.UserID {
		prometheus.RecordAuthError("note_ownership_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied - you can only edit your own notes"})
	}

	note.Title = strings.TrimSpace(req.Title)
	note.Content = strings.TrimSpace(req.Content)
	if req.IsSticky != nil {
		note.IsSticky = *req.IsSticky
	}
	if req.BgColor != nil {
		note.BgColor = req.BgColor
	}
	if req.TextColor != nil {
		note.TextColor = req.TextColor
	}

	if err := h.store.SaveNote(note); err != nil {
		// A delete can race this update; the row being gone is not an error
		// worth a 500 for the client.
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "note not found"})
		}
		log.Error("Failed to update note", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update note"})
	}

	author, _ := h.store.FindUserByID(note.AuthorID)
	return c.JSON(http.StatusOK, echo.Map{"note": noteJSON(note, author)})
}

// DeleteNote applies tenant isolation, then the ownership gate
func (h *Handler) DeleteNote(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordNoteOperation("delete")

	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	noteID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid note ID"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	note, err := h.store.FindNote(p.TenantID, uint(noteID))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "note not found"})
	}

	if note.AuthorID != p.UserID {
		prometheus.RecordAuthError("note_ownership_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied - you can only delete your own notes"})
	}

	if err := h.store.DeleteNote(p.TenantID, note.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "note not found"})
		}
		log.Error("Failed to delete note", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete note"})
	}

	log.Info("Note deleted",
		zap.Uint("note_id", note.ID),
		zap.Uint("tenant_id", p.TenantID))

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Note deleted successfully",
		"noteId":  note.ID,
	})
}

// ToggleSticky flips a note's sticky flag. Any tenant member may toggle,
// there is no ownership check here.
func (h *Handler) ToggleSticky(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordNoteOperation("toggle_sticky")

	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	noteID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid note ID"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	note, err := h.store.FindNote(p.TenantID, uint(noteID))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "note not found"})
	}

	note.IsSticky = !note.IsSticky
	if err := h.store.SaveNote(note); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "note not found"})
		}
		log.Error("Failed to toggle sticky flag", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update note"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":       note.ID,
		"isSticky": note.IsSticky,
	})
}

// Recommendations returns a small rule-based ranking: sticky notes first,
// then recently updated ones.
func (h *Handler) Recommendations(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordNoteOperation("recommendations")

	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	notes, err := h.store.RecentNotes(p.TenantID, 5)
	if err != nil {
		log.Error("Failed to load recommendations", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to get recommendations"})
	}

	recs := make([]echo.Map, 0, len(notes))
	for i, n := range notes {
		reason := "Recently updated"
		score := 0.7 - float64(i)*0.05
		if n.IsSticky {
			reason = "You marked this as important"
			score = 0.9 - float64(i)*0.05
		}
		recs = append(recs, echo.Map{
			"noteId": n.ID,
			"title":  n.Title,
			"reason": reason,
			"score":  score,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"recommendations": recs})
}
