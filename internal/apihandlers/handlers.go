package apihandlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"ticketclassifier/internal/app"
	"ticketclassifier/internal/services"
	"ticketclassifier/pkg/categorizer"
)

const requestIDHeader = "X-Request-ID"

type APIHandler struct {
	App *app.App
	// DefaultTaxonomy is used when a classify request carries no categories.
	DefaultTaxonomy *categorizer.Taxonomy
}

func NewAPIHandler(app *app.App, defaultTaxonomy *categorizer.Taxonomy) *APIHandler {
	return &APIHandler{App: app, DefaultTaxonomy: defaultTaxonomy}
}

// RegisterRoutes mounts the health check and the /api/v1 routes.
func (h *APIHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.HealthHandler)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/categories", h.CategoriesHandler)
		v1.POST("/classify", h.ClassifyHandler)
	}
}

// ClassifyRequest is the JSON body of POST /api/v1/classify. Case may be a
// number or a "case_N" string.
type ClassifyRequest struct {
	Ticket     string          `json:"ticket"`
	Categories json.RawMessage `json:"categories,omitempty"`
	Case       json.RawMessage `json:"case,omitempty"`
}

// ClassifyResponse is the "data" member of a successful classify response.
type ClassifyResponse struct {
	ID         string             `json:"id"`
	Case       categorizer.Case   `json:"case"`
	Result     categorizer.Result `json:"result"`
	DurationMs int64              `json:"duration_ms"`
	Lenient    bool               `json:"lenient,omitempty"`
}

func (h *APIHandler) ClassifyHandler(c *gin.Context) {
	req, err := parseClassifyRequest(c)
	if err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	caseSel, err := parseCaseField(req.Case)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	taxonomy, err := h.resolveTaxonomy(req.Categories)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	if h.App == nil || h.App.CategorizationService == nil {
		Internal(c, "Categorization service is not configured")
		return
	}

	out, err := h.App.CategorizationService.Classify(c.Request.Context(), categorizer.Ticket(req.Ticket), taxonomy, caseSel)
	if out != nil {
		c.Header(requestIDHeader, out.ID)
	}

	lenient := false
	if err != nil {
		ve, ok := asValidationError(err)
		if !ok || c.Query("lenient") != "true" {
			log.WithField("request_id", requestID(out)).Warnf("API classify failed: %v", err)
			ClassificationError(c, err)
			return
		}
		log.WithField("request_id", out.ID).Warnf("Accepting result with %d taxonomy mismatches", len(ve.Mismatches))
		out.Result = ve.Result
		lenient = true
	}

	c.JSON(http.StatusOK, gin.H{"data": ClassifyResponse{
		ID:         out.ID,
		Case:       out.Case,
		Result:     out.Result,
		DurationMs: out.Duration.Milliseconds(),
		Lenient:    lenient,
	}})
}

// parseClassifyRequest parses and validates the ClassifyRequest from the JSON body.
func parseClassifyRequest(c *gin.Context) (ClassifyRequest, error) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return req, err
	}
	if strings.TrimSpace(req.Ticket) == "" {
		return req, fmt.Errorf("missing required field: ticket")
	}
	return req, nil
}

func parseCaseField(raw json.RawMessage) (categorizer.Case, error) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return categorizer.CaseSingle, nil
	}
	return categorizer.ParseCase(s)
}

func (h *APIHandler) resolveTaxonomy(raw json.RawMessage) (*categorizer.Taxonomy, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		if h.DefaultTaxonomy == nil {
			return nil, fmt.Errorf("missing required field: categories (no default taxonomy configured)")
		}
		return h.DefaultTaxonomy, nil
	}
	taxonomy, err := categorizer.ParseTaxonomy(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid categories: %w", err)
	}
	return taxonomy, nil
}

func (h *APIHandler) CategoriesHandler(c *gin.Context) {
	if h.DefaultTaxonomy == nil {
		NotFound(c, "No default taxonomy configured; start the server with --categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": h.DefaultTaxonomy})
}

func (h *APIHandler) HealthHandler(c *gin.Context) {
	resp := gin.H{"status": "ok"}
	if h.App != nil && h.App.CompletionService != nil {
		resp["provider"] = h.App.CompletionService.Name()
		resp["model"] = h.App.CompletionService.ModelName()
		resp["provider_status"] = h.App.CompletionService.Status()
	}
	c.JSON(http.StatusOK, resp)
}

func asValidationError(err error) (*categorizer.ValidationError, bool) {
	var ve *categorizer.ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}

func requestID(out *services.Classification) string {
	if out == nil {
		return ""
	}
	return out.ID
}
