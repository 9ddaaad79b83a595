// Package convert реализует HTTP-обработчик перехода с пробного периода
// на платный план.
//
// Handler принимает JSON-запрос с идентификаторами плана и способа оплаты,
// валидирует их и вызывает сервис конвертации. Запись пробного периода при
// этом удаляется, поэтому последующая инициализация создаёт новый пробный
// период.
package convert

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/trial-lifecycle/internal/http/middlewarectx"
	"github.com/magabrotheeeer/trial-lifecycle/internal/http/response"
	"github.com/magabrotheeeer/trial-lifecycle/internal/lib/sl"
	"github.com/magabrotheeeer/trial-lifecycle/internal/models"
	"github.com/magabrotheeeer/trial-lifecycle/internal/services/subscription"
)

// Handler управляет HTTP-запросами на переход к платному плану.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики пробных периодов
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики конвертации подписки.
type Service interface {
	ConvertToPaid(ctx context.Context, userID, planID, paymentMethodID string) (models.SubscriptionView, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Перейти на платный план
// @Description Переводит текущего пользователя с пробного периода на платный план. Запись пробного периода удаляется.
// @Tags Trial
// @Accept  json
// @Produce  json
// @Param request body models.DummyConvert true "Параметры платного плана"
// @Success 200 {object} response.Response "Представление платной подписки"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Пробный период не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при конвертации"
// @Router /trial/convert [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.trial.convert"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyConvert
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	view, err := h.service.ConvertToPaid(r.Context(), userUID, req.PlanID, req.PaymentMethodID)
	if err != nil {
		if errors.Is(err, subscription.ErrTrialNotFound) {
			log.Info("trial not found", slog.String("user_uid", userUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("trial not found"))
			return
		}
		log.Error("failed to convert to paid", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not convert to paid plan"))
		return
	}

	log.Info("trial converted to paid", sl.UserID(userUID), slog.String("plan_id", req.PlanID))
	render.JSON(w, r, response.StatusOKWithData(view))
}
