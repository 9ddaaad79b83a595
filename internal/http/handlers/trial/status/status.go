// Package status реализует HTTP-обработчик получения состояния подписки.
//
// Handler извлекает идентификатор пользователя из контекста и возвращает
// текущее представление подписки: план, статус, даты и количество
// оставшихся дней пробного периода.
package status

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/trial-lifecycle/internal/http/middlewarectx"
	"github.com/magabrotheeeer/trial-lifecycle/internal/http/response"
	"github.com/magabrotheeeer/trial-lifecycle/internal/models"
)

// Handler управляет HTTP-запросами на чтение состояния подписки.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики пробных периодов
}

// Service описывает интерфейс чтения состояния подписки.
type Service interface {
	GetView(userID string) (models.SubscriptionView, bool)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получить состояние подписки
// @Description Возвращает текущее представление подписки пользователя, включая статус пробного периода и количество оставшихся дней.
// @Tags Trial
// @Produce  json
// @Success 200 {object} response.Response "Представление подписки"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Подписка не найдена"
// @Router /trial [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.trial.status"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	view, ok := h.service.GetView(userUID)
	if !ok {
		log.Info("subscription not found", slog.String("user_uid", userUID))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("subscription not found"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(view))
}
