package convert

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/trial-lifecycle/internal/http/middlewarectx"
	"github.com/magabrotheeeer/trial-lifecycle/internal/models"
	"github.com/magabrotheeeer/trial-lifecycle/internal/services/subscription"
)

// MockService реализует интерфейс convert.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) ConvertToPaid(ctx context.Context, userID, planID, paymentMethodID string) (models.SubscriptionView, error) {
	args := m.Called(ctx, userID, planID, paymentMethodID)
	return args.Get(0).(models.SubscriptionView), args.Error(1)
}

func TestConvertHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	paidView := models.SubscriptionView{
		PlanID:    "pro-monthly",
		Status:    models.StatusActive,
		StartDate: now,
		EndDate:   now.AddDate(0, 0, 30),
		AutoRenew: true,
	}

	tests := []struct {
		name           string
		body           string
		userUID        string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:    "успешный переход на платный план",
			body:    `{"plan_id":"pro-monthly","payment_method_id":"pm-1"}`,
			userUID: "user-1",
			setupMock: func(m *MockService) {
				m.On("ConvertToPaid", mock.Anything, "user-1", "pro-monthly", "pm-1").
					Return(paidView, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"plan_id":"pro-monthly"`,
		},
		{
			name:           "некорректный JSON",
			body:           `{"plan_id":`,
			userUID:        "user-1",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `invalid request body`,
		},
		{
			name:           "отсутствует plan_id",
			body:           `{"payment_method_id":"pm-1"}`,
			userUID:        "user-1",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field PlanID is a required field`,
		},
		{
			name:           "пользователь не авторизован",
			body:           `{"plan_id":"pro-monthly","payment_method_id":"pm-1"}`,
			userUID:        "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `unauthorized`,
		},
		{
			name:    "пробный период не найден",
			body:    `{"plan_id":"pro-monthly","payment_method_id":"pm-1"}`,
			userUID: "user-2",
			setupMock: func(m *MockService) {
				m.On("ConvertToPaid", mock.Anything, "user-2", "pro-monthly", "pm-1").
					Return(models.SubscriptionView{}, subscription.ErrTrialNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `trial not found`,
		},
		{
			name:    "ошибка сервиса",
			body:    `{"plan_id":"pro-monthly","payment_method_id":"pm-1"}`,
			userUID: "user-1",
			setupMock: func(m *MockService) {
				m.On("ConvertToPaid", mock.Anything, "user-1", "pro-monthly", "pm-1").
					Return(models.SubscriptionView{}, errors.New("store down"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `could not convert to paid plan`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/trial/convert", strings.NewReader(tt.body))
			if tt.userUID != "" {
				ctx := context.WithValue(req.Context(), middlewarectx.UserUID, tt.userUID)
				req = req.WithContext(ctx)
			}

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
