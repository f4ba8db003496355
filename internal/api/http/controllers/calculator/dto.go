package calculator

import (
	"strconv"
	"strings"
	"time"

	"github.com/PolicyEngine/ACA-Calc/internal/domain"
)

// CalculateRequest — форма домохозяйства (для POST /api/v1/calculate). Незаданные переключатели берут значения по умолчанию.
type CalculateRequest struct {
	AgeHead       *int   `json:"age_head"`
	AgeSpouse     *int   `json:"age_spouse"`
	DependentAges []int  `json:"dependent_ages"`
	State         string `json:"state"`
	County        string `json:"county"`
	ZipCode       string `json:"zip_code"`
	ShowIRA       *bool  `json:"show_ira"`
	Show700FPL    *bool  `json:"show_700fpl"`
	AutoExplain   bool   `json:"auto_explain"`
}

// Form переводит запрос в сырую форму для нормализации.
func (r CalculateRequest) Form() domain.RawForm {
	form := domain.RawForm{
		domain.FieldState:   r.State,
		domain.FieldCounty:  r.County,
		domain.FieldZipCode: r.ZipCode,
	}
	if r.AgeHead != nil {
		form[domain.FieldAgeHead] = strconv.Itoa(*r.AgeHead)
	}
	if r.AgeSpouse != nil {
		form[domain.FieldAgeSpouse] = strconv.Itoa(*r.AgeSpouse)
	}
	if len(r.DependentAges) > 0 {
		deps := make([]string, len(r.DependentAges))
		for i, a := range r.DependentAges {
			deps[i] = strconv.Itoa(a)
		}
		form[domain.FieldDependentAges] = strings.Join(deps, ",")
	}
	if r.ShowIRA != nil {
		form[domain.FieldShowIRA] = strconv.FormatBool(*r.ShowIRA)
	}
	if r.Show700FPL != nil {
		form[domain.FieldShow700FPL] = strconv.FormatBool(*r.Show700FPL)
	}
	return form
}

// CalculateResponse — успешный расчёт.
type CalculateResponse struct {
	SessionID     string                    `json:"session_id"`
	CalculationID string                    `json:"calculation_id"`
	Source        domain.Source             `json:"source"`
	Cached        bool                      `json:"cached"`
	CacheKey      domain.CacheKey           `json:"cache_key"`
	Request       domain.CalculationRequest `json:"request"`
	Result        *domain.CalculationResult `json:"result"`
	ShareQuery    string                    `json:"share_query"`
	Explanation   *domain.ExplanationResult `json:"explanation,omitempty"`
}

func newCalculateResponse(sessionID string, calc *domain.Calculation, autoExplain bool) CalculateResponse {
	return CalculateResponse{
		SessionID:     sessionID,
		CalculationID: calc.ID,
		Source:        calc.Source,
		Cached:        calc.FromCache(),
		CacheKey:      calc.Key,
		Request:       calc.Request,
		Result:        calc.Result,
		ShareQuery:    domain.EncodeShareLink(calc.Request, autoExplain).Encode(),
	}
}

// ProgressResponse — событие прогресса в SSE-потоке.
type ProgressResponse struct {
	Phase    domain.Phase `json:"phase"`
	Progress float64      `json:"progress"`
	Message  string       `json:"message,omitempty"`
}

// ExplainRequest — тело POST /api/v1/explain. Auto=true — автозапуск из ссылки (не больше раза на расчёт).
type ExplainRequest struct {
	Auto bool `json:"auto"`
}

// ExplainResponse — объяснение расчёта.
type ExplainResponse struct {
	CalculationID string                    `json:"calculation_id"`
	Fired         bool                      `json:"fired"`
	Explanation   *domain.ExplanationResult `json:"explanation,omitempty"`
}

// ShareRequest — тело POST /api/v1/share.
type ShareRequest struct {
	CalculateRequest
}

// ShareResponse — параметры ссылки и восстановленный из неё запрос.
type ShareResponse struct {
	Query       string                    `json:"query"`
	Request     domain.CalculationRequest `json:"request"`
	AutoExplain bool                      `json:"auto_explain"`
	CacheKey    domain.CacheKey           `json:"cache_key"`
}

// HistoryItem — одна запись в истории (для GET /api/v1/history).
type HistoryItem struct {
	ID            string        `json:"id"`
	State         string        `json:"state"`
	County        string        `json:"county"`
	HouseholdSize int           `json:"household_size"`
	FPL           float64       `json:"fpl"`
	SLCSP         float64       `json:"slcsp"`
	Source        domain.Source `json:"source"`
	CompletedAt   time.Time     `json:"completed_at"`
}

// HistoryResponse — ответ со списком расчётов.
type HistoryResponse struct {
	Items []HistoryItem `json:"items"`
}

// ErrorResponse — ошибка для клиента. Field заполнен для ошибок ввода.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}
