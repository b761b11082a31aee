package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"text/template"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/pressbadge/internal/badge"
)

const (
	contentTypeJavaScript = "application/javascript; charset=utf-8"
	contentTypeHTML       = "text/html; charset=utf-8"

	embedCommentUnknownBadge = "/* unknown badge */"
	embedCommentNoPreview    = "/* badge has no generated preview */"
	embedCommentUnavailable  = "/* badge temporarily unavailable */"
)

// badgeLoaderSource renders the script served from /trust-badges/:id.js. The
// script replaces its own script tag with a sandboxed iframe whose srcdoc is
// the stored badge document, so host-page CSS cannot leak into the badge.
const badgeLoaderSource = `(function () {
  var scripts = document.getElementsByTagName("script");
  var current = document.currentScript || scripts[scripts.length - 1];
  var frame = document.createElement("iframe");
  frame.setAttribute("title", {{.BadgeTitle}});
  frame.setAttribute("sandbox", "allow-scripts");
  frame.style.border = "0";
  frame.style.width = "100%";
  frame.style.maxWidth = "720px";
  frame.style.height = "140px";
  frame.srcdoc = {{.DocumentJSON}};
  current.parentNode.insertBefore(frame, current);
})();
`

var badgeLoaderTemplate = template.Must(template.New("badge_loader").Parse(badgeLoaderSource))

type badgeLoaderView struct {
	BadgeTitle   string
	DocumentJSON string
}

// EmbedHandlers serves the public, unauthenticated badge endpoints that
// customer pages load directly.
type EmbedHandlers struct {
	badgeStore badge.Store
	logger     *zap.Logger
}

// NewEmbedHandlers creates EmbedHandlers.
func NewEmbedHandlers(badgeStore badge.Store, logger *zap.Logger) *EmbedHandlers {
	return &EmbedHandlers{badgeStore: badgeStore, logger: logger}
}

// BadgeScript serves the embeddable loader script. Failures answer with a
// valid no-op JavaScript comment so a customer page never breaks on a bad
// badge id or a backend hiccup.
func (handlers *EmbedHandlers) BadgeScript(context *gin.Context) {
	badgeIdentifier := strings.TrimSuffix(strings.TrimSpace(context.Param("id")), ".js")
	if badgeIdentifier == "" {
		context.Data(http.StatusOK, contentTypeJavaScript, []byte(embedCommentUnknownBadge))
		return
	}

	record, loadErr := handlers.badgeStore.GetByBadgeID(context.Request.Context(), badgeIdentifier)
	if loadErr != nil {
		if errors.Is(loadErr, badge.ErrBadgeNotFound) {
			context.Data(http.StatusOK, contentTypeJavaScript, []byte(embedCommentUnknownBadge))
			return
		}
		handlers.logger.Warn("load_badge_script", zap.Error(loadErr))
		context.Data(http.StatusOK, contentTypeJavaScript, []byte(embedCommentUnavailable))
		return
	}
	if !record.PreviewGenerated() {
		context.Data(http.StatusOK, contentTypeJavaScript, []byte(embedCommentNoPreview))
		return
	}

	titleJSON, titleErr := json.Marshal(record.Name)
	documentJSON, documentErr := json.Marshal(record.HTMLDocument)
	if titleErr != nil || documentErr != nil {
		context.Data(http.StatusOK, contentTypeJavaScript, []byte(embedCommentUnavailable))
		return
	}

	var rendered bytes.Buffer
	renderErr := badgeLoaderTemplate.Execute(&rendered, badgeLoaderView{
		BadgeTitle:   string(titleJSON),
		DocumentJSON: string(documentJSON),
	})
	if renderErr != nil {
		handlers.logger.Warn("render_badge_script", zap.Error(renderErr))
		context.Data(http.StatusOK, contentTypeJavaScript, []byte(embedCommentUnavailable))
		return
	}

	context.Data(http.StatusOK, contentTypeJavaScript, rendered.Bytes())
}

// BadgePreview serves the stored badge document as a standalone page.
func (handlers *EmbedHandlers) BadgePreview(context *gin.Context) {
	badgeIdentifier := strings.TrimSpace(context.Param("id"))
	if badgeIdentifier == "" {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueMissingBadge})
		return
	}

	record, loadErr := handlers.badgeStore.GetByBadgeID(context.Request.Context(), badgeIdentifier)
	if loadErr != nil {
		if errors.Is(loadErr, badge.ErrBadgeNotFound) {
			context.JSON(http.StatusNotFound, gin.H{jsonKeyError: errorValueNoBadge})
			return
		}
		handlers.logger.Warn("load_badge_preview", zap.Error(loadErr))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueLoadFailed})
		return
	}
	if !record.PreviewGenerated() {
		context.JSON(http.StatusNotFound, gin.H{jsonKeyError: errorValueNoBadge})
		return
	}

	context.Data(http.StatusOK, contentTypeHTML, []byte(record.HTMLDocument))
}
