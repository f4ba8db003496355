package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	json "github.com/goccy/go-json"
	"golang.org/x/text/cases"
)

// cacheKeyDomain — префикс доменного разделения хеша; версия позволяет сменить алгоритм.
const cacheKeyDomain = "acacalc/calculation/v1"

// CacheKey — детерминированный ключ результата расчёта.
type CacheKey string

// cacheKeyFields — ровно те поля запроса, что влияют на результат. Порядок полей фиксирован структурой.
// Переключатели сценариев не входят: сервис всегда возвращает все кривые.
type cacheKeyFields struct {
	AgeHead       int    `json:"age_head"`
	AgeSpouse     *int   `json:"age_spouse"`
	DependentAges []int  `json:"dependent_ages"`
	State         string `json:"state"`
	County        string `json:"county"`
	ZipCode       string `json:"zip_code"`
}

// DeriveCacheKey — чистая функция: одинаковые значения дают одинаковый ключ независимо от порядка полей на входе.
func DeriveCacheKey(r CalculationRequest) CacheKey {
	deps := r.DependentAges
	if deps == nil {
		deps = []int{}
	}
	fields := cacheKeyFields{
		AgeHead:       r.AgeHead,
		AgeSpouse:     r.AgeSpouse,
		DependentAges: deps,
		State:         strings.ToUpper(strings.TrimSpace(r.State)),
		County:        cases.Fold().String(strings.Join(strings.Fields(r.County), " ")),
		ZipCode:       strings.TrimSpace(r.ZipCode),
	}
	// Маршалинг структуры из int/string/[]int не может завершиться ошибкой.
	canonical, _ := json.Marshal(fields)
	return CacheKey(hashWithDomain(cacheKeyDomain, canonical))
}

// hashWithDomain считает SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
