package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "equitylens/internal/errors"
	"equitylens/internal/pipeline"
	api "equitylens/pkg/contracts/api/v1"
)

// AnalyzeHandler runs the analysis pipeline for request batches.
type AnalyzeHandler struct {
	runner   *pipeline.Runner
	validate *validator.Validate
	logger   *slog.Logger
}

// NewAnalyzeHandler creates the handler.
func NewAnalyzeHandler(runner *pipeline.Runner, logger *slog.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{
		runner:   runner,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.With(slog.String("handler", "analyze")),
	}
}

// Analyze handles POST /api/analyze.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.AnalyzeRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.logger.WarnContext(ctx, "malformed analyze request", slog.Any("error", err))
		apierrors.WriteError(w, apierrors.ErrInvalidRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		apierrors.WriteError(w, apierrors.NewWithDetails(
			http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", fieldErrors(err)))
		return
	}

	analyses, err := h.runner.Run(ctx, req.Identifiers)
	if err != nil {
		// Run fails only on context cancellation.
		apierrors.WriteError(w, apierrors.FromAppError(err))
		return
	}

	resp := api.AnalyzeResponse{Results: make([]api.AnalysisResult, len(analyses))}
	for i, analysis := range analyses {
		resp.Results[i] = toAnalysisResult(analysis)
	}

	h.logger.InfoContext(ctx, "analyze request served",
		slog.Int("identifiers", len(req.Identifiers)),
	)
	render.JSON(w, r, resp)
}

// fieldErrors flattens validator output into the API error detail shape.
func fieldErrors(err error) []apierrors.FieldError {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []apierrors.FieldError{{Field: "request", Message: err.Error()}}
	}
	out := make([]apierrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, apierrors.FieldError{
			Field:   fe.Field(),
			Message: fe.Tag(),
		})
	}
	return out
}
