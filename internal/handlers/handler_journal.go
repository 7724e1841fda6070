package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/SscSPs/buchungsjournal/internal/apperrors"
	"github.com/SscSPs/buchungsjournal/internal/core/domain"
	portssvc "github.com/SscSPs/buchungsjournal/internal/core/ports/services"
	"github.com/SscSPs/buchungsjournal/internal/dto"
	"github.com/SscSPs/buchungsjournal/internal/middleware"
	"github.com/SscSPs/buchungsjournal/internal/utils/export"
	"github.com/SscSPs/buchungsjournal/internal/utils/mapping"
	"github.com/SscSPs/buchungsjournal/internal/utils/pagination"
	"github.com/gin-gonic/gin"
)

// journalHandler handles HTTP requests related to journal entries.
type journalHandler struct {
	ledger portssvc.LedgerSvcFacade
}

// newJournalHandler creates a new journalHandler.
func newJournalHandler(ledger portssvc.LedgerSvcFacade) *journalHandler {
	return &journalHandler{
		ledger: ledger,
	}
}

// RegisterJournalRoutes registers routes related to journal entries.
func RegisterJournalRoutes(rg *gin.RouterGroup, ledger portssvc.LedgerSvcFacade) {
	h := newJournalHandler(ledger)

	entries := rg.Group("/journal-entries")
	{
		entries.GET("", h.listEntries)
		entries.POST("", h.createEntry)
		entries.GET("/next-number", h.getNextEntryNumber)
		entries.GET("/summary", h.getSummary)
		entries.GET("/export", h.exportEntries)
		entries.GET("/:id", h.getEntry)
		entries.PATCH("/:id", h.updateEntry)
		entries.DELETE("/:id", h.deleteEntry)
		entries.POST("/:id/post", h.postEntry)
		entries.POST("/:id/reverse", h.reverseEntry)
	}
}

// respondServiceError maps ledger errors onto status codes.
func respondServiceError(c *gin.Context, logger *slog.Logger, err error, action string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn("Journal entry not found", slog.String("action", action))
		c.JSON(http.StatusNotFound, gin.H{"error": "Journal entry not found"})
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation error", slog.String("action", action), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInvalidState), errors.Is(err, apperrors.ErrUnbalanced):
		logger.Warn("Journal entry state conflict", slog.String("action", action), slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrStaleSnapshot):
		logger.Warn("Journal changed by another writer", slog.String("action", action))
		c.JSON(http.StatusConflict, gin.H{"error": "Journal was changed by another writer, please retry"})
	default:
		logger.Error("Ledger operation failed", slog.String("action", action), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to %s", action)})
	}
}

// actorOr401 resolves the authenticated actor or writes 401.
func actorOr401(c *gin.Context, logger *slog.Logger) (string, bool) {
	actor, ok := middleware.GetActorFromContext(c)
	if !ok {
		logger.Error("Actor not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return actor, true
}

// listEntries returns the filtered journal in store order, optionally paged.
func (h *journalHandler) listEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListJournalEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for ListEntries", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	criteria, err := mapping.ToFilterCriteria(params)
	if err != nil {
		respondServiceError(c, logger, err, "list journal entries")
		return
	}

	entries := h.ledger.FilterEntries(c.Request.Context(), criteria)
	page, nextToken, err := pagination.Page(entries, params.Limit, params.NextToken, func(e domain.JournalEntry) string { return e.ID })
	if err != nil {
		logger.Warn("Invalid pagination token", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid nextToken"})
		return
	}

	logger.Debug("Journal entries listed", slog.Int("count", len(page)), slog.Int("matched", len(entries)))
	c.JSON(http.StatusOK, dto.ToListJournalEntriesResponse(page, nextToken))
}

// createEntry appends a new entry authored by the caller.
func (h *journalHandler) createEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateJournalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateEntry", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor, ok := actorOr401(c, logger)
	if !ok {
		return
	}

	input, err := mapping.ToCreateEntryInput(req, actor)
	if err != nil {
		respondServiceError(c, logger, err, "create journal entry")
		return
	}

	entry, err := h.ledger.CreateEntry(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, logger, err, "create journal entry")
		return
	}

	logger.Info("Journal entry created", slog.String("entry_id", entry.ID), slog.String("entry_number", entry.EntryNumber))
	c.JSON(http.StatusCreated, dto.ToJournalEntryResponse(entry))
}

// getNextEntryNumber previews the number of the next entry of the current year.
func (h *journalHandler) getNextEntryNumber(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NextEntryNumberResponse{EntryNumber: h.ledger.GetNextEntryNumber(c.Request.Context())})
}

func (h *journalHandler) getSummary(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ToJournalSummaryResponse(h.ledger.GetSummary(c.Request.Context())))
}

// exportEntries downloads the filtered journal as CSV.
func (h *journalHandler) exportEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListJournalEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for ExportEntries", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}
	criteria, err := mapping.ToFilterCriteria(params)
	if err != nil {
		respondServiceError(c, logger, err, "export journal")
		return
	}

	entries := h.ledger.FilterEntries(c.Request.Context(), criteria)

	var buf bytes.Buffer
	if err := export.WriteJournalCSV(&buf, entries); err != nil {
		respondServiceError(c, logger, err, "export journal")
		return
	}

	filename := fmt.Sprintf("buchungsjournal-%s.csv", domain.Today())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	logger.Info("Journal exported", slog.Int("entries", len(entries)))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *journalHandler) getEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("id")
	logger = logger.With(slog.String("entry_id", entryID))

	entry, err := h.ledger.GetEntry(c.Request.Context(), entryID)
	if err != nil {
		respondServiceError(c, logger, err, "retrieve journal entry")
		return
	}

	c.JSON(http.StatusOK, dto.ToJournalEntryResponse(entry))
}

// updateEntry merges a partial update into a draft.
func (h *journalHandler) updateEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("id")
	logger = logger.With(slog.String("entry_id", entryID))

	var req dto.UpdateJournalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateEntry", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	update, err := mapping.ToEntryUpdate(req)
	if err != nil {
		respondServiceError(c, logger, err, "update journal entry")
		return
	}

	entry, err := h.ledger.UpdateEntry(c.Request.Context(), entryID, update)
	if err != nil {
		respondServiceError(c, logger, err, "update journal entry")
		return
	}

	logger.Info("Journal entry updated")
	c.JSON(http.StatusOK, dto.ToJournalEntryResponse(entry))
}

func (h *journalHandler) deleteEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("id")
	logger = logger.With(slog.String("entry_id", entryID))

	if _, err := h.ledger.DeleteEntry(c.Request.Context(), entryID); err != nil {
		respondServiceError(c, logger, err, "delete journal entry")
		return
	}

	logger.Info("Journal entry deleted")
	c.Status(http.StatusNoContent)
}

// postEntry finalizes a balanced draft and returns it.
func (h *journalHandler) postEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("id")
	logger = logger.With(slog.String("entry_id", entryID))

	actor, ok := actorOr401(c, logger)
	if !ok {
		return
	}

	if _, err := h.ledger.PostEntry(c.Request.Context(), entryID, actor); err != nil {
		respondServiceError(c, logger, err, "post journal entry")
		return
	}

	entry, err := h.ledger.GetEntry(c.Request.Context(), entryID)
	if err != nil {
		respondServiceError(c, logger, err, "post journal entry")
		return
	}

	logger.Info("Journal entry posted", slog.String("posted_by", actor))
	c.JSON(http.StatusOK, dto.ToJournalEntryResponse(entry))
}

// reverseEntry creates the offsetting entry of a posted one.
func (h *journalHandler) reverseEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("id")
	logger = logger.With(slog.String("entry_id", entryID))

	var req dto.ReverseJournalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		logger.Warn("Failed to bind JSON for ReverseEntry", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor, ok := actorOr401(c, logger)
	if !ok {
		return
	}

	reversal, err := h.ledger.ReverseEntry(c.Request.Context(), entryID, actor, req.ReversalDate)
	if err != nil {
		respondServiceError(c, logger, err, "reverse journal entry")
		return
	}

	logger.Info("Journal entry reversed", slog.String("reversal_id", reversal.ID), slog.String("reversal_number", reversal.EntryNumber))
	c.JSON(http.StatusCreated, dto.ToJournalEntryResponse(reversal))
}
