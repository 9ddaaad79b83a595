package check

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockSweeper реализует интерфейс check.Sweeper
type MockSweeper struct {
	mock.Mock
}

func (m *MockSweeper) ForceCheck(ctx context.Context) {
	m.Called(ctx)
}

func TestCheckHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	mockSweeper := new(MockSweeper)
	mockSweeper.On("ForceCheck", mock.Anything).Return()

	handler := New(logger, mockSweeper)

	req := httptest.NewRequest(http.MethodPost, "/trial/check", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `"checked":true`),
		"response body should confirm the check, got %s", w.Body.String())

	mockSweeper.AssertExpectations(t)
}
