package calcservice

import (
	json "github.com/goccy/go-json"

	"github.com/PolicyEngine/ACA-Calc/internal/domain"
)

// requestBody кодирует запрос для сервиса: список иждивенцев всегда массив, не null.
func requestBody(req domain.CalculationRequest) ([]byte, error) {
	if req.DependentAges == nil {
		req.DependentAges = []int{}
	}
	return json.Marshal(req)
}

// errorDetail достаёт поле detail из тела ошибки: строку как есть, иначе сырой JSON.
func errorDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 || string(payload.Detail) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s
	}
	return string(payload.Detail)
}
