package domain

import (
	"net/url"
	"strconv"
	"strings"
)

// Параметры ссылки, которой можно поделиться.
const (
	ParamAge     = "age"
	ParamSpouse  = "spouse"
	ParamDeps    = "deps"
	ParamState   = "state"
	ParamCounty  = "county"
	ParamZip     = "zip"
	ParamIRA     = "ira"
	Param700FPL  = "fpl700"
	ParamExplain = "explain"
)

// EncodeShareLink кодирует запрос и флаг автопоказа объяснения в плоские параметры.
func EncodeShareLink(req CalculationRequest, autoExplain bool) url.Values {
	v := url.Values{}
	v.Set(ParamAge, strconv.Itoa(req.AgeHead))
	if req.AgeSpouse != nil {
		v.Set(ParamSpouse, strconv.Itoa(*req.AgeSpouse))
	}
	if len(req.DependentAges) > 0 {
		deps := make([]string, len(req.DependentAges))
		for i, age := range req.DependentAges {
			deps[i] = strconv.Itoa(age)
		}
		v.Set(ParamDeps, strings.Join(deps, ","))
	}
	v.Set(ParamState, req.State)
	v.Set(ParamCounty, req.County)
	if req.ZipCode != "" {
		v.Set(ParamZip, req.ZipCode)
	}
	v.Set(ParamIRA, boolParam(req.Policies.IRA))
	v.Set(Param700FPL, boolParam(req.Policies.FPL700))
	if autoExplain {
		v.Set(ParamExplain, "1")
	}
	return v
}

// DecodeShareLink переводит параметры ссылки обратно в сырую форму. Второе значение — флаг автопоказа объяснения.
func DecodeShareLink(v url.Values) (RawForm, bool) {
	raw := RawForm{
		FieldAgeHead:       v.Get(ParamAge),
		FieldAgeSpouse:     v.Get(ParamSpouse),
		FieldDependentAges: v.Get(ParamDeps),
		FieldState:         v.Get(ParamState),
		FieldCounty:        v.Get(ParamCounty),
		FieldZipCode:       v.Get(ParamZip),
		FieldShowIRA:       v.Get(ParamIRA),
		FieldShow700FPL:    v.Get(Param700FPL),
	}
	auto, err := strconv.ParseBool(v.Get(ParamExplain))
	return raw, err == nil && auto
}

// ParseShareLink восстанавливает нормализованный запрос из ссылки.
func ParseShareLink(v url.Values) (CalculationRequest, bool, error) {
	raw, auto := DecodeShareLink(v)
	req, err := Normalize(raw)
	if err != nil {
		return CalculationRequest{}, false, err
	}
	return req, auto, nil
}

func boolParam(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
