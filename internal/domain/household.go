package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// Имена полей сырой формы (и JSON-полей запроса к сервису расчёта).
const (
	FieldAgeHead       = "age_head"
	FieldAgeSpouse     = "age_spouse"
	FieldDependentAges = "dependent_ages"
	FieldState         = "state"
	FieldCounty        = "county"
	FieldZipCode       = "zip_code"
	FieldShowIRA       = "show_ira"
	FieldShow700FPL    = "show_700fpl"
)

// Границы допустимых значений домохозяйства.
const (
	MinAge        = 0
	MaxAge        = 120
	MaxDependents = 10
)

var zipPattern = regexp.MustCompile(`^[0-9]{5}$`)

// RawForm — плоское состояние формы: имя поля -> строковое значение, как пришло из UI или ссылки.
type RawForm map[string]string

// Policies — переключатели сценариев. Базовый сценарий (закон 2026) считается всегда.
type Policies struct {
	IRA    bool `json:"show_ira"`
	FPL700 bool `json:"show_700fpl"`
}

// Any сообщает, включён ли хотя бы один сценарий.
func (p Policies) Any() bool {
	return p.IRA || p.FPL700
}

// CalculationRequest — канонический запрос на расчёт. После Normalize не изменяется.
type CalculationRequest struct {
	AgeHead       int    `json:"age_head"`
	AgeSpouse     *int   `json:"age_spouse,omitempty"`
	DependentAges []int  `json:"dependent_ages"`
	State         string `json:"state"`
	County        string `json:"county"`
	ZipCode       string `json:"zip_code,omitempty"`
	Policies
}

// HouseholdSize — число людей в налоговой единице.
func (r CalculationRequest) HouseholdSize() int {
	n := 1 + len(r.DependentAges)
	if r.AgeSpouse != nil {
		n++
	}
	return n
}

// Normalize строит канонический запрос из сырой формы.
// Ошибка всегда *ValidationError: не хватает географии или число вне допустимого диапазона.
func Normalize(raw RawForm) (CalculationRequest, error) {
	get := func(field string) string { return strings.TrimSpace(raw[field]) }

	var req CalculationRequest

	head, err := parseAge(FieldAgeHead, get(FieldAgeHead), true)
	if err != nil {
		return CalculationRequest{}, err
	}
	req.AgeHead = *head

	if req.AgeSpouse, err = parseAge(FieldAgeSpouse, get(FieldAgeSpouse), false); err != nil {
		return CalculationRequest{}, err
	}

	if req.DependentAges, err = parseDependents(get(FieldDependentAges)); err != nil {
		return CalculationRequest{}, err
	}

	req.State = strings.ToUpper(get(FieldState))
	req.County = strings.Join(strings.Fields(get(FieldCounty)), " ")
	req.ZipCode = get(FieldZipCode)

	if req.Policies.IRA, err = parseToggle(FieldShowIRA, get(FieldShowIRA), true); err != nil {
		return CalculationRequest{}, err
	}
	if req.Policies.FPL700, err = parseToggle(FieldShow700FPL, get(FieldShow700FPL), false); err != nil {
		return CalculationRequest{}, err
	}

	if err := req.validateHousehold(); err != nil {
		return CalculationRequest{}, err
	}
	return req, nil
}

// Validate проверяет запрос целиком, включая инвариант «хотя бы один сценарий включён».
func (r CalculationRequest) Validate() error {
	if err := r.validateHousehold(); err != nil {
		return err
	}
	if !r.Policies.Any() {
		return &ValidationError{Field: "policies", Reason: "at least one policy scenario must be selected"}
	}
	return nil
}

func (r CalculationRequest) validateHousehold() error {
	if err := checkAge(FieldAgeHead, r.AgeHead); err != nil {
		return err
	}
	if r.AgeSpouse != nil {
		if err := checkAge(FieldAgeSpouse, *r.AgeSpouse); err != nil {
			return err
		}
	}
	if len(r.DependentAges) > MaxDependents {
		return &ValidationError{Field: FieldDependentAges, Reason: "at most " + strconv.Itoa(MaxDependents) + " dependents are supported"}
	}
	for _, age := range r.DependentAges {
		if err := checkAge(FieldDependentAges, age); err != nil {
			return err
		}
	}
	if r.State == "" {
		return &ValidationError{Field: FieldState, Reason: "is required"}
	}
	if _, ok := StateName(r.State); !ok {
		return &ValidationError{Field: FieldState, Reason: "unknown state code " + strconv.Quote(r.State)}
	}
	if strings.TrimSpace(r.County) == "" {
		return &ValidationError{Field: FieldCounty, Reason: "is required"}
	}
	if r.ZipCode != "" && !zipPattern.MatchString(r.ZipCode) {
		return &ValidationError{Field: FieldZipCode, Reason: "must be 5 digits"}
	}
	return nil
}

func parseAge(field, s string, required bool) (*int, error) {
	if s == "" {
		if required {
			return nil, &ValidationError{Field: field, Reason: "is required"}
		}
		return nil, nil
	}
	age, err := strconv.Atoi(s)
	if err != nil {
		return nil, &ValidationError{Field: field, Reason: "must be a whole number"}
	}
	if err := checkAge(field, age); err != nil {
		return nil, err
	}
	return &age, nil
}

func parseDependents(s string) ([]int, error) {
	ages := []int{}
	if s == "" {
		return ages, nil
	}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		age, err := parseAge(FieldDependentAges, part, true)
		if err != nil {
			return nil, err
		}
		ages = append(ages, *age)
	}
	if len(ages) > MaxDependents {
		return nil, &ValidationError{Field: FieldDependentAges, Reason: "at most " + strconv.Itoa(MaxDependents) + " dependents are supported"}
	}
	return ages, nil
}

func parseToggle(field, s string, def bool) (bool, error) {
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, &ValidationError{Field: field, Reason: "must be a boolean"}
	}
	return v, nil
}

func checkAge(field string, age int) error {
	if age < MinAge || age > MaxAge {
		return &ValidationError{Field: field, Reason: "must be between " + strconv.Itoa(MinAge) + " and " + strconv.Itoa(MaxAge)}
	}
	return nil
}
