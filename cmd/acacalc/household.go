package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PolicyEngine/ACA-Calc/internal/domain"
)

// householdFlags регистрирует флаги домохозяйства, общие для calculate и link.
func householdFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("age", 0, "Age of the head of household (required)")
	f.Int("spouse", 0, "Age of the spouse, if any")
	f.String("deps", "", "Comma-separated dependent ages, e.g. 5,8")
	f.String("state", "", "Two-letter state code (required)")
	f.String("county", "", "County name (required)")
	f.String("zip", "", "5-digit ZIP code")
	f.Bool("ira", true, "Include the IRA enhancement extension scenario")
	f.Bool("fpl700", false, "Include the 700% FPL cap scenario")
	f.String("link", "", "Share link (or its query string); replaces the household flags")
}

var householdFields = []struct{ field, flag string }{
	{domain.FieldAgeHead, "age"},
	{domain.FieldAgeSpouse, "spouse"},
	{domain.FieldDependentAges, "deps"},
	{domain.FieldState, "state"},
	{domain.FieldCounty, "county"},
	{domain.FieldZipCode, "zip"},
	{domain.FieldShowIRA, "ira"},
	{domain.FieldShow700FPL, "fpl700"},
}

// householdForm собирает сырую форму из флагов. Незаданный флаг остаётся пустым полем,
// значение по умолчанию для него подставит Normalize.
func householdForm(cmd *cobra.Command) domain.RawForm {
	f := cmd.Flags()
	raw := domain.RawForm{}
	for _, hf := range householdFields {
		if f.Changed(hf.flag) {
			raw[hf.field] = f.Lookup(hf.flag).Value.String()
		}
	}
	return raw
}

// readRequest возвращает нормализованный запрос из --link или из флагов домохозяйства.
// Второе значение — флаг автопоказа объяснения из ссылки.
func readRequest(cmd *cobra.Command) (domain.CalculationRequest, bool, error) {
	link, _ := cmd.Flags().GetString("link")
	if link == "" {
		req, err := domain.Normalize(householdForm(cmd))
		return req, false, err
	}
	v, err := parseLink(link)
	if err != nil {
		return domain.CalculationRequest{}, false, err
	}
	return domain.ParseShareLink(v)
}

// parseLink принимает и полный адрес, и голую строку запроса.
func parseLink(link string) (url.Values, error) {
	link = strings.TrimSpace(link)
	if i := strings.IndexByte(link, '?'); i >= 0 {
		link = link[i+1:]
	}
	if i := strings.IndexByte(link, '#'); i >= 0 {
		link = link[:i]
	}
	v, err := url.ParseQuery(link)
	if err != nil {
		return nil, fmt.Errorf("share link: %w", err)
	}
	return v, nil
}
