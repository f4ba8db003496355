package calculator

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/PolicyEngine/ACA-Calc/internal/api/http/middlewares"
	"github.com/PolicyEngine/ACA-Calc/internal/domain"
	"github.com/PolicyEngine/ACA-Calc/internal/ports"
	"github.com/PolicyEngine/ACA-Calc/internal/usecase/calculator"
	"github.com/PolicyEngine/ACA-Calc/internal/usecase/session"
)

// progressBuffer — сколько снимков прогресса держим для медленного SSE-клиента; лишние отбрасываются.
const progressBuffer = 64

// Controller — маршруты калькулятора: calculate (JSON и SSE), explain, share, history, session.
type Controller struct {
	sessions *session.Registry
	uc       ports.ICalculatorUseCase
	log      *slog.Logger
}

// New создаёт контроллер калькулятора.
func New(sessions *session.Registry, uc ports.ICalculatorUseCase, log *slog.Logger) *Controller {
	return &Controller{sessions: sessions, uc: uc, log: log}
}

// RegisterRoutes реализует http.Controller: регистрирует маршруты на роутере.
func (c *Controller) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")

	api.POST("/calculate", c.calculate)
	api.POST("/explain", c.explain)
	api.POST("/share", c.encodeShare)
	api.GET("/share", c.decodeShare)
	api.GET("/history", c.history)
	api.DELETE("/session", c.closeSession)
}

// @Summary Рассчитать налоговый кредит
// @Description Нормализует форму, отдаёт результат из кэша или считает через сервис расчёта.
// @Description С Accept: text/event-stream (или ?stream=1) отдаёт SSE: progress, result, explanation, error.
// @Tags calculator
// @Accept json
// @Produce json
// @Param X-Session-ID header string false "Идентификатор сессии; пустой — новая сессия"
// @Param request body CalculateRequest true "Домохозяйство"
// @Success 200 {object} CalculateResponse
// @Failure 400 {object} ErrorResponse "Невалидный ввод"
// @Failure 409 {object} ErrorResponse "Вытеснен более новым расчётом"
// @Failure 422 {object} ErrorResponse "Сервис расчёта вернул ошибку"
// @Failure 502 {object} ErrorResponse "Сервис расчёта недоступен"
// @Router /api/v1/calculate [post]
func (c *Controller) calculate(ctx *gin.Context) {
	var body CalculateRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		c.log.Warn("calculate bind failed", "error", err)
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return
	}

	entry := c.openSession(ctx)
	req, err := domain.Normalize(body.Form())
	if err != nil {
		c.writeError(ctx, err)
		return
	}

	if wantsStream(ctx) {
		c.calculateStream(ctx, entry, req, body.AutoExplain)
		return
	}

	calc, err := entry.Calc.Calculate(ctx.Request.Context(), req)
	if err != nil {
		c.writeError(ctx, err)
		return
	}
	resp := newCalculateResponse(entry.ID, calc, body.AutoExplain)
	resp.Explanation = c.autoExplain(ctx.Request.Context(), entry, calc, body.AutoExplain)
	ctx.JSON(http.StatusOK, resp)
}

type outcome struct {
	calc *domain.Calculation
	err  error
}

// calculateStream ведёт расчёт и транслирует снимки сессии в SSE.
func (c *Controller) calculateStream(ctx *gin.Context, entry *session.Entry, req domain.CalculationRequest, autoExplain bool) {
	reqCtx := ctx.Request.Context()

	snaps := make(chan domain.Snapshot, progressBuffer)
	unsubscribe := entry.Calc.Subscribe(func(s domain.Snapshot) {
		if s.Phase != domain.PhaseStreaming && s.Phase != domain.PhaseFallback {
			return
		}
		select {
		case snaps <- s:
		default:
		}
	})
	defer unsubscribe()

	done := make(chan outcome, 1)
	go func() {
		calc, err := entry.Calc.Calculate(reqCtx, req)
		done <- outcome{calc: calc, err: err}
	}()

	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("X-Accel-Buffering", "no")
	emit := func(event string, data any) {
		ctx.SSEvent(event, data)
		ctx.Writer.Flush()
	}
	for {
		select {
		case s := <-snaps:
			emit("progress", progressOf(s))
		case out := <-done:
			for drained := false; !drained; {
				select {
				case s := <-snaps:
					emit("progress", progressOf(s))
				default:
					drained = true
				}
			}
			if out.err != nil {
				emit("error", errorBody(out.err))
				return
			}
			emit("result", newCalculateResponse(entry.ID, out.calc, autoExplain))
			if expl := c.autoExplain(reqCtx, entry, out.calc, autoExplain); expl != nil {
				emit("explanation", expl)
			}
			return
		case <-reqCtx.Done():
			return
		}
	}
}

func progressOf(s domain.Snapshot) ProgressResponse {
	return ProgressResponse{Phase: s.Phase, Progress: s.Progress.Percent, Message: s.Progress.Message}
}

// autoExplain запускает автопоказ объяснения. Ошибка объяснения не влияет на ответ расчёта.
func (c *Controller) autoExplain(ctx context.Context, entry *session.Entry, calc *domain.Calculation, enabled bool) *domain.ExplanationResult {
	res, fired, err := entry.Explain.AutoExplain(ctx, calc, enabled)
	if err != nil {
		c.log.Warn("auto explanation failed", "session", entry.ID, "calculation", calc.ID, "error", err)
		return nil
	}
	if !fired {
		return nil
	}
	return res
}

// @Summary Объяснить последний расчёт сессии
// @Tags calculator
// @Accept json
// @Produce json
// @Param X-Session-ID header string true "Идентификатор сессии"
// @Param request body ExplainRequest false "auto=true — автозапуск из ссылки"
// @Success 200 {object} ExplainResponse
// @Failure 409 {object} ErrorResponse "Расчёта ещё нет или запрос вытеснен"
// @Failure 502 {object} ErrorResponse "Сервис объяснений недоступен"
// @Router /api/v1/explain [post]
func (c *Controller) explain(ctx *gin.Context) {
	var body ExplainRequest
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&body); err != nil {
			ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
			return
		}
	}

	entry := c.openSession(ctx)
	calc := entry.LastCalculation()
	if calc == nil {
		c.writeError(ctx, domain.ErrNoResult)
		return
	}

	if body.Auto {
		res, fired, err := entry.Explain.AutoExplain(ctx.Request.Context(), calc, true)
		if err != nil {
			c.writeError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, ExplainResponse{CalculationID: calc.ID, Fired: fired, Explanation: res})
		return
	}

	res, err := entry.Explain.Explain(ctx.Request.Context(), calc)
	if err != nil {
		c.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, ExplainResponse{CalculationID: calc.ID, Fired: true, Explanation: res})
}

// @Summary Ссылка на расчёт
// @Description Кодирует форму в параметры ссылки.
// @Tags calculator
// @Accept json
// @Produce json
// @Param request body ShareRequest true "Домохозяйство"
// @Success 200 {object} ShareResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/share [post]
func (c *Controller) encodeShare(ctx *gin.Context) {
	var body ShareRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return
	}
	req, err := domain.Normalize(body.Form())
	if err != nil {
		c.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, ShareResponse{
		Query:       domain.EncodeShareLink(req, body.AutoExplain).Encode(),
		Request:     req,
		AutoExplain: body.AutoExplain,
		CacheKey:    domain.DeriveCacheKey(req),
	})
}

// @Summary Разобрать ссылку на расчёт
// @Tags calculator
// @Produce json
// @Param age query int true "Возраст главы"
// @Param state query string true "Штат"
// @Param county query string true "Округ"
// @Success 200 {object} ShareResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/share [get]
func (c *Controller) decodeShare(ctx *gin.Context) {
	req, auto, err := domain.ParseShareLink(ctx.Request.URL.Query())
	if err != nil {
		c.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, ShareResponse{
		Query:       domain.EncodeShareLink(req, auto).Encode(),
		Request:     req,
		AutoExplain: auto,
		CacheKey:    domain.DeriveCacheKey(req),
	})
}

// @Summary История расчётов
// @Tags calculator
// @Produce json
// @Param limit query int false "Сколько записей вернуть"
// @Success 200 {object} HistoryResponse
// @Failure 501 {object} ErrorResponse "История не настроена"
// @Router /api/v1/history [get]
func (c *Controller) history(ctx *gin.Context) {
	limit := 0
	if s := ctx.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit", Field: "limit"})
			return
		}
		limit = n
	}

	list, err := c.uc.History(ctx.Request.Context(), limit)
	if err != nil {
		c.writeError(ctx, err)
		return
	}
	items := make([]HistoryItem, len(list))
	for i, rec := range list {
		items[i] = HistoryItem{
			ID:            rec.ID,
			State:         rec.State,
			County:        rec.County,
			HouseholdSize: rec.HouseholdSize,
			FPL:           rec.FPL,
			SLCSP:         rec.SLCSP,
			Source:        rec.Source,
			CompletedAt:   rec.CompletedAt,
		}
	}
	ctx.JSON(http.StatusOK, HistoryResponse{Items: items})
}

func (c *Controller) closeSession(ctx *gin.Context) {
	id := ctx.GetHeader(middlewares.SessionHeader)
	if id == "" || !c.sessions.Close(id) {
		ctx.JSON(http.StatusNotFound, ErrorResponse{Error: "unknown session"})
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (c *Controller) openSession(ctx *gin.Context) *session.Entry {
	entry := c.sessions.Open(ctx.GetHeader(middlewares.SessionHeader))
	ctx.Header(middlewares.SessionHeader, entry.ID)
	return entry
}

func wantsStream(ctx *gin.Context) bool {
	if v, err := strconv.ParseBool(ctx.Query("stream")); err == nil {
		return v
	}
	return strings.Contains(ctx.GetHeader("Accept"), "text/event-stream")
}

func (c *Controller) writeError(ctx *gin.Context, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		c.log.Error("request failed", "path", ctx.FullPath(), "error", err)
	}
	_ = ctx.Error(err)
	ctx.JSON(status, errorBody(err))
}

func errorBody(err error) ErrorResponse {
	resp := ErrorResponse{Error: domain.UserMessage(err)}
	var invalid *domain.ValidationError
	switch {
	case errors.As(err, &invalid):
		resp.Field = invalid.Field
	case errors.Is(err, domain.ErrSuperseded), errors.Is(err, domain.ErrNoResult), errors.Is(err, calculator.ErrHistoryDisabled):
		resp.Error = err.Error()
	}
	return resp
}

// statusOf переводит доменную ошибку в HTTP-статус.
func statusOf(err error) int {
	var (
		invalid *domain.ValidationError
		failed  *domain.CalculationFailed
		expl    *domain.ExplanationFailed
	)
	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSuperseded), errors.Is(err, domain.ErrNoResult):
		return http.StatusConflict
	case errors.As(err, &failed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, calculator.ErrHistoryDisabled):
		return http.StatusNotImplemented
	case errors.As(err, &expl):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case domain.Recoverable(err):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
