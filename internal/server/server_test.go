package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"winequality/internal/data"
	"winequality/internal/models"
	"winequality/internal/observability"
	"winequality/internal/persistence"
	"winequality/internal/preprocessing"
)

var referenceWine = []float64{7.4, 0.7, 0.0, 1.9, 0.076, 11.0, 34.0, 0.9978, 3.51, 0.56, 9.4}

func init() {
	gin.SetMode(gin.TestMode)
}

// wineDataset jitters the reference wine, raising alcohol with quality.
func wineDataset(t *testing.T) *data.Dataset {
	t.Helper()
	r := rand.New(rand.NewSource(1))
	ds := &data.Dataset{Features: data.FeatureNames}

	for _, quality := range []int{5, 6, 7} {
		for i := 0; i < 20; i++ {
			row := make([]decimal.Decimal, data.NumFeatures)
			for j, base := range referenceWine {
				v := base * (1 + r.NormFloat64()*0.05)
				if j == 10 {
					v = 9 + float64(quality-5)*1.5 + r.NormFloat64()*0.2
				}
				row[j] = decimal.NewFromFloat(v).Round(4)
			}
			ds.X = append(ds.X, row)
			ds.Y = append(ds.Y, quality)
		}
	}
	return ds
}

func newTestApp(t *testing.T, opts ...Option) *App {
	t.Helper()
	ds := wineDataset(t)

	scaler := preprocessing.NewScaler()
	X, err := scaler.FitTransform(ds.X)
	require.NoError(t, err)

	tree := models.NewDecisionTree(5, 2)
	require.NoError(t, tree.Fit(X, ds.Y))

	app, err := NewApp(tree, scaler, ds, opts...)
	require.NoError(t, err)
	return app
}

func newTestRouter(t *testing.T, opts ...Option) *gin.Engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(newTestApp(t, opts...), observability.NewMetrics(), logger)
}

func postPredict(r http.Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)
	return rec
}

func TestPredictReferenceWine(t *testing.T) {
	r := newTestRouter(t)

	body, err := json.Marshal(PredictRequest{Features: referenceWine})
	require.NoError(t, err)

	rec := postPredict(r, string(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	quality, ok := resp["quality"].(float64)
	require.True(t, ok)
	assert.Equal(t, float64(int(quality)), quality)
	assert.GreaterOrEqual(t, quality, 5.0)
	assert.LessOrEqual(t, quality, 7.0)
}

func TestPredictInvalidRequests(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"features": [1, 2`},
		{"missing features", `{}`},
		{"too few", `{"features": [1, 2, 3]}`},
		{"too many", `{"features": [1,2,3,4,5,6,7,8,9,10,11,12]}`},
		{"not numbers", `{"features": ["a","b","c","d","e","f","g","h","i","j","k"]}`},
		{"wrong type", `{"features": "7.4"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postPredict(r, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "invalid_request", resp.Error)
			assert.NotEmpty(t, resp.Details)
		})
	}
}

func TestSampleEndpoint(t *testing.T) {
	r := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sample", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var view HomeView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Features, data.NumFeatures)
	for _, f := range view.Features {
		assert.NotEmpty(t, f.Name)
	}
	assert.GreaterOrEqual(t, view.Accuracy, 0.0)
	assert.LessOrEqual(t, view.Accuracy, 100.0)
	assert.Contains(t, []int{5, 6, 7}, view.Actual)
}

func TestHomePage(t *testing.T) {
	r := newTestRouter(t, WithPicker(func(int) int { return 0 }))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	html := rec.Body.String()
	for _, name := range data.FeatureNames {
		assert.Contains(t, html, name)
	}
	assert.Contains(t, html, "Actual quality: <strong>5</strong>")
	assert.Contains(t, html, "Accuracy:")
}

func TestPredictPage(t *testing.T) {
	r := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/predict-page", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, data.NumFeatures, strings.Count(rec.Body.String(), `type="number"`))
	assert.Contains(t, rec.Body.String(), "/predict")
}

func TestPredictPageShowsFeatureRanges(t *testing.T) {
	app := newTestApp(t)
	hints := app.FeatureHints()
	require.Len(t, hints, data.NumFeatures)
	for _, h := range hints {
		assert.LessOrEqual(t, h.Min, h.Max, h.Name)
	}
	// alcohol is drawn around 9, 10.5 and 12 by quality.
	assert.Less(t, hints[10].Min, 10.0)
	assert.Greater(t, hints[10].Max, 11.0)

	r := NewRouter(app, observability.NewMetrics(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/predict-page", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), fmt.Sprintf(`placeholder="%v to %v"`, hints[10].Min, hints[10].Max))
}

func TestHealthAndMetrics(t *testing.T) {
	r := newTestRouter(t, WithMetadata(persistence.BundleMetadata{Candidate: "Decision Tree"}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"model":"Decision Tree"`)

	body, _ := json.Marshal(PredictRequest{Features: referenceWine})
	require.Equal(t, http.StatusOK, postPredict(r, string(body)).Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `winequality_http_requests_total{method="POST",route="/predict",status="200"} 1`)
	assert.Contains(t, rec.Body.String(), `source="api"`)
}

func TestAccuracy(t *testing.T) {
	assert.Equal(t, 100.0, Accuracy(6, 6))
	assert.InDelta(t, 100-100.0/9, Accuracy(5, 6), 1e-12)
	assert.InDelta(t, 100-200.0/9, Accuracy(7, 5), 1e-12)
	assert.Equal(t, 0.0, Accuracy(0, 9))
}

func TestAppPredictValidation(t *testing.T) {
	app := newTestApp(t)

	_, err := app.Predict([]float64{1, 2})
	assert.ErrorIs(t, err, ErrFeatureCount)

	q, err := app.Predict(referenceWine)
	require.NoError(t, err)
	assert.Contains(t, []int{5, 6, 7}, q)
}

func TestNewAppErrors(t *testing.T) {
	ds := wineDataset(t)
	tree := models.NewDecisionTree(3, 2)

	_, err := NewApp(nil, preprocessing.NewScaler(), ds)
	assert.ErrorIs(t, err, persistence.ErrUnknownModel)

	_, err = NewApp(tree, preprocessing.NewScaler(), ds)
	assert.ErrorIs(t, err, preprocessing.ErrNotFitted)

	scaler := preprocessing.NewScaler()
	require.NoError(t, scaler.Fit(ds.X))
	_, err = NewApp(tree, scaler, &data.Dataset{})
	assert.Error(t, err)
}

func TestUnknownRouteIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	r := NewRouter(newTestApp(t), observability.NewMetrics(), logger)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, buf.String(), "status=404")
}
