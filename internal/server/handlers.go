package server

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"winequality/internal/observability"
)

//go:embed templates/*.html
var templateFS embed.FS

// PredictRequest is the body of POST /predict. Features are raw values in
// data.FeatureColumns order.
type PredictRequest struct {
	Features []float64 `json:"features" binding:"required,len=11"`
}

type PredictResponse struct {
	Quality int `json:"quality"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type handler struct {
	app     *App
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewRouter wires every route onto a gin engine.
func NewRouter(app *App, metrics *observability.Metrics, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NewMetrics()
	}

	h := &handler{app: app, metrics: metrics, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger, metrics))
	r.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))

	r.GET("/", h.home)
	r.GET("/predict-page", h.predictPage)
	r.POST("/predict", h.predict)
	r.GET("/api/sample", h.sample)
	r.GET("/healthz", h.health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	return r
}

func (h *handler) home(c *gin.Context) {
	view, err := h.app.Sample()
	if err != nil {
		h.logger.Error("sample prediction failed", "error", err)
		c.String(http.StatusInternalServerError, "prediction failed")
		return
	}
	h.countPrediction(view.Predicted, "sample")

	c.HTML(http.StatusOK, "index.html", view)
}

type predictPageView struct {
	Features []FeatureHint
}

func (h *handler) predictPage(c *gin.Context) {
	view := predictPageView{Features: h.app.FeatureHints()}
	c.HTML(http.StatusOK, "predict.html", view)
}

func (h *handler) predict(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Details: err.Error(),
		})
		return
	}

	quality, err := h.app.Predict(req.Features)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Details: err.Error(),
		})
		return
	}
	h.countPrediction(quality, "api")

	c.JSON(http.StatusOK, PredictResponse{Quality: quality})
}

func (h *handler) sample(c *gin.Context) {
	view, err := h.app.Sample()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "prediction_failed", Details: err.Error()})
		return
	}
	h.countPrediction(view.Predicted, "sample")

	c.JSON(http.StatusOK, view)
}

func (h *handler) health(c *gin.Context) {
	md := h.app.Metadata()
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"model":     md.Candidate,
		"run_id":    md.RunID,
		"samples":   h.app.NumSamples(),
		"timestamp": time.Now().UTC(),
	})
}

func (h *handler) countPrediction(quality int, source string) {
	h.metrics.Predictions.WithLabelValues(strconv.Itoa(quality), source).Inc()
}
