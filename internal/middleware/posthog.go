package middleware

import (
	"net/http"
	"strings"

	"github.com/SscSPs/buchungsjournal/internal/utils"
	"github.com/gin-gonic/gin"
)

// pathsToSkip contains paths that should not be tracked by PostHog
var pathsToSkip = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// journalEvents names the ledger operations by route. Keys are method plus gin route pattern.
var journalEvents = map[string]string{
	http.MethodPost + " /api/v1/journal-entries":             "journal_entry_created",
	http.MethodPatch + " /api/v1/journal-entries/:id":        "journal_entry_updated",
	http.MethodDelete + " /api/v1/journal-entries/:id":       "journal_entry_deleted",
	http.MethodPost + " /api/v1/journal-entries/:id/post":    "journal_entry_posted",
	http.MethodPost + " /api/v1/journal-entries/:id/reverse": "journal_entry_reversed",
	http.MethodGet + " /api/v1/journal-entries/export":       "journal_exported",
}

// posthogEventName maps a matched route to an event name. Ledger operations
// get their own names; other routes use the path, e.g. "/api/v1/journal-entries/summary"
// becomes "api_v1_journal-entries_summary".
func posthogEventName(method, fullPath string) string {
	if name, ok := journalEvents[method+" "+fullPath]; ok {
		return name
	}
	return strings.ReplaceAll(strings.TrimPrefix(fullPath, "/"), "/", "_")
}

// PosthogMiddleware creates a Gin middleware handler that tracks API events with PostHog
func PosthogMiddleware(posthogClient *utils.PosthogClientWrapper) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip if PostHog is not initialized or path is in skip list
		if posthogClient == nil || !posthogClient.IsInitialized() || pathsToSkip[c.Request.URL.Path] {
			c.Next()
			return
		}

		c.Next()

		// Rejected postings and failed saves are not tracked
		if len(c.Errors) > 0 || c.Writer.Status() >= http.StatusBadRequest {
			return
		}

		// Set by AuthMiddleware
		userID, exists := GetUserIDFromContext(c)
		if !exists {
			return
		}

		// Empty for unmatched routes
		eventName := posthogEventName(c.Request.Method, c.FullPath())
		if eventName == "" {
			return
		}

		props := map[string]any{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status_code": c.Writer.Status(),
		}
		if id := c.Param("id"); id != "" {
			props["entry_id"] = id
		}

		posthogClient.Enqueue(userID, eventName, props)
	}
}
