package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hpn/hpn-chatgpt-udf/internal/domain"
	"github.com/hpn/hpn-chatgpt-udf/internal/udf"
	"github.com/hpn/hpn-chatgpt-udf/internal/ui"
)

// UDFHandler exposes a configured ChatGPT UDF over HTTP. The shared instance
// is never reconfigured; per-request overrides run on a copy.
type UDFHandler struct {
	udf     *udf.ChatGPT
	logger  *slog.Logger
	console bool
}

// UDFHandlerOption is a functional option for configuring UDFHandler.
type UDFHandlerOption func(*UDFHandler)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) UDFHandlerOption {
	return func(h *UDFHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithConsole enables colored per-batch console output.
func WithConsole(enabled bool) UDFHandlerOption {
	return func(h *UDFHandler) {
		h.console = enabled
	}
}

// NewUDFHandler creates a new UDFHandler.
func NewUDFHandler(u *udf.ChatGPT, opts ...UDFHandlerOption) *UDFHandler {
	h := &UDFHandler{
		udf:    u,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// ForwardResponse is the body returned by HandleForward.
type ForwardResponse struct {
	Columns    []domain.Column `json:"columns"`
	Rows       int             `json:"rows"`
	FailedRows int             `json:"failed_rows"`
	Attempts   int             `json:"attempts"`
	Usage      domain.Usage    `json:"usage"`
}

// HandleForward handles POST /v1/udfs/chatgpt/forward.
// Optional ?model= and ?temperature= override the configured setup for this
// request only.
func (h *UDFHandler) HandleForward(c *gin.Context) {
	var batch domain.Batch
	if err := c.ShouldBindJSON(&batch); err != nil {
		h.sendError(c, http.StatusBadRequest, "invalid_request_error", "Invalid request body: "+err.Error())
		return
	}

	target, err := h.withOverrides(c)
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "invalid_request_error", err.Error())
		return
	}

	out, err := target.Forward(c.Request.Context(), batch)
	if err != nil {
		h.sendForwardError(c, err)
		return
	}

	c.Set(ctxKeyRows, out.NumRows())
	c.Set(ctxKeyFailedRows, out.FailedRows())
	c.Set(ctxKeyAttempts, out.Attempts())

	if h.console {
		cost := out.Usage.Cost(target.Model())
		ui.PrintBatchSummary(out.NumRows(), out.FailedRows(), out.Usage.TotalTokens,
			domain.FormatCost(cost), domain.FormatCost(target.TotalSpend()))
	}

	c.JSON(http.StatusOK, ForwardResponse{
		Columns:    []domain.Column{out.Column()},
		Rows:       out.NumRows(),
		FailedRows: out.FailedRows(),
		Attempts:   out.Attempts(),
		Usage:      out.Usage,
	})
}

// withOverrides returns the shared UDF, or a configured copy when the request
// carries model or temperature query parameters.
func (h *UDFHandler) withOverrides(c *gin.Context) (*udf.ChatGPT, error) {
	model, hasModel := c.GetQuery("model")
	rawTemp, hasTemp := c.GetQuery("temperature")
	if !hasModel && !hasTemp {
		return h.udf, nil
	}

	if !hasModel {
		model = string(h.udf.Model())
	}
	temperature := h.udf.Temperature()
	if hasTemp {
		t, err := strconv.ParseFloat(rawTemp, 64)
		if err != nil {
			return nil, errors.New("temperature must be a number")
		}
		temperature = t
	}

	return h.udf.WithSetup(model, temperature)
}

// sendForwardError maps Forward errors to HTTP statuses.
func (h *UDFHandler) sendForwardError(c *gin.Context, err error) {
	switch {
	case domain.IsSchemaError(err):
		h.sendError(c, http.StatusBadRequest, "invalid_request_error", err.Error())
	case domain.IsConfigurationError(err):
		h.logger.Error("forward rejected: configuration error",
			slog.String("request_id", c.GetString(ctxKeyRequestID)),
			slog.String("error", err.Error()),
		)
		h.sendError(c, http.StatusInternalServerError, "configuration_error", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.logger.Warn("forward aborted",
			slog.String("request_id", c.GetString(ctxKeyRequestID)),
			slog.String("error", err.Error()),
		)
		h.sendError(c, http.StatusServiceUnavailable, "server_error", "Request cancelled before the batch completed.")
	default:
		h.logger.Error("forward failed",
			slog.String("request_id", c.GetString(ctxKeyRequestID)),
			slog.String("error", err.Error()),
		)
		h.sendError(c, http.StatusInternalServerError, "server_error", "Internal server error")
	}
}

// HandleDescriptors handles GET /v1/udfs.
func (h *UDFHandler) HandleDescriptors(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   []domain.Descriptor{h.udf.Descriptor()},
	})
}

// HandleModels handles GET /v1/models.
// Returns the models Setup accepts in OpenAI list format.
func (h *UDFHandler) HandleModels(c *gin.Context) {
	models := domain.SupportedModels()
	data := make([]gin.H, len(models))
	for i, m := range models {
		data[i] = gin.H{
			"id":       string(m),
			"object":   "model",
			"owned_by": "openai",
			"default":  m == h.udf.Model(),
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   data,
	})
}

// HandleHealth handles GET /health.
// The service is degraded while no credential resolves.
func (h *UDFHandler) HandleHealth(c *gin.Context) {
	source, ok := h.udf.CredentialSource()

	status := "healthy"
	if !ok {
		status = "degraded"
	}

	body := gin.H{
		"status":      status,
		"model":       string(h.udf.Model()),
		"temperature": h.udf.Temperature(),
		"credential":  gin.H{"resolved": ok, "source": source},
		"total_spend": domain.FormatCost(h.udf.TotalSpend()),
	}
	if !ok {
		body["hint"] = domain.CredentialHint
	}

	c.JSON(http.StatusOK, body)
}

// sendError sends an error response in OpenAI-compatible format.
func (h *UDFHandler) sendError(c *gin.Context, status int, errType, message string) {
	c.JSON(status, errorBody(message, errType, nil))
}

func errorBody(message, errType string, code any) gin.H {
	return gin.H{
		"error": gin.H{
			"message": message,
			"type":    errType,
			"param":   nil,
			"code":    code,
		},
	}
}
