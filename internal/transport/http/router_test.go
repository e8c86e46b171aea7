package httptransport

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	credhandler "credverify/internal/credential/handler"
	"credverify/internal/credential/handler/mocks"
	"credverify/internal/credential/models"
	"credverify/internal/platform/health"
	"credverify/pkg/requestcontext"
)

func newTestRouter(t *testing.T) (http.Handler, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(Config{
		Logger:      logger,
		Credentials: credhandler.New(svc, logger),
		Health:      health.New("test"),
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "# metrics\n")
		}),
		Clock: func() time.Time { return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC) },
	})
	return router, svc
}

func TestRouterAssignsRequestIDAndTime(t *testing.T) {
	router, svc := newTestRouter(t)
	svc.EXPECT().GetUniversityKey(gomock.Any(), "StateU").DoAndReturn(
		func(ctx context.Context, _ string) (models.UniversityKey, error) {
			assert.Equal(t, "req-42", requestcontext.RequestID(ctx))
			return models.UniversityKey{PublicKey: "PEM"}, nil
		})

	req := httptest.NewRequest(http.MethodGet, "/universities/StateU/public-key", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}

func TestRouterPinsRequestTime(t *testing.T) {
	router, svc := newTestRouter(t)
	var seen time.Time
	svc.EXPECT().CountDegreesIssued(gomock.Any(), "StateU").DoAndReturn(
		func(ctx context.Context, _ string) (int, error) {
			seen = requestcontext.Now(ctx)
			return 0, nil
		})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/degrees/count/StateU", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC), seen)
}

func TestRouterRejectsNonJSONBodies(t *testing.T) {
	router, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/submitTransactionToBlockChain", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestRouterServesProbesAndMetrics(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, "# metrics\n", w.Body.String())
}
