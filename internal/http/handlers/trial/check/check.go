// Package check реализует HTTP-обработчик принудительного запуска
// проверки жизненного цикла вне расписания фонового планировщика.
package check

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/trial-lifecycle/internal/http/response"
)

// Handler управляет HTTP-запросами на внеплановую проверку.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	sweeper Sweeper      // Планировщик проверок жизненного цикла
}

// Sweeper описывает интерфейс принудительной проверки жизненного цикла.
type Sweeper interface {
	ForceCheck(ctx context.Context)
}

// New создает новый Handler с переданными логгером и планировщиком.
func New(log *slog.Logger, sweeper Sweeper) *Handler {
	return &Handler{
		log:     log,
		sweeper: sweeper,
	}
}

// ServeHTTP godoc
// @Summary Запустить внеплановую проверку
// @Description Синхронно выполняет один проход проверки жизненного цикла по всем записям пробных периодов.
// @Tags Trial
// @Produce  json
// @Success 200 {object} response.Response "Проверка выполнена"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Router /trial/check [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.trial.check"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	h.sweeper.ForceCheck(r.Context())

	log.Info("forced lifecycle check completed")
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"checked": true,
	}))
}
