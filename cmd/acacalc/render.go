package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/PolicyEngine/ACA-Calc/internal/domain"
)

const (
	barWidth     = 40
	messageWidth = 36
	labelWidth   = 24
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2C6496"))
	labelStyle   = lipgloss.NewStyle().Faint(true).Width(labelWidth)
	valueStyle   = lipgloss.NewStyle().Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#D97706"))
	messageStyle = lipgloss.NewStyle().Width(messageWidth).MaxWidth(messageWidth)
	sectionStyle = lipgloss.NewStyle().PaddingLeft(2)
)

var printer = message.NewPrinter(language.English)

var scenarioLabels = map[domain.Scenario]string{
	domain.ScenarioBaseline: "Current law (2026)",
	domain.ScenarioIRA:      "IRA extension",
	domain.Scenario700FPL:   "700% FPL cap",
}

// progressView рисует полосу прогресса одной строкой, перерисовывая её через \r.
type progressView struct {
	w       io.Writer
	bar     progress.Model
	enabled bool
	drawn   bool
}

func newProgressView(w io.Writer, enabled bool) *progressView {
	return &progressView{
		w:       w,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth)),
		enabled: enabled,
	}
}

// observe — наблюдатель сессии расчёта.
func (v *progressView) observe(s domain.Snapshot) {
	if !v.enabled {
		return
	}
	percent, msg := s.Progress.Percent, s.Progress.Message
	switch s.Phase {
	case domain.PhaseStreaming:
	case domain.PhaseFallback:
		msg = "Retrying without live progress..."
	case domain.PhaseSuccess:
		percent = 100
		if msg == "" {
			msg = "Done"
		}
	default:
		return
	}
	fmt.Fprintf(v.w, "\r%s %s", v.bar.ViewAs(percent/100), messageStyle.Render(msg))
	v.drawn = true
}

func (v *progressView) done() {
	if v.drawn {
		fmt.Fprintln(v.w)
	}
}

func money(v float64) string {
	return printer.Sprintf("$%.0f", v)
}

func moneyCents(v float64) string {
	return printer.Sprintf("$%.2f", v)
}

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value) + "\n"
}

func describeHousehold(req domain.CalculationRequest) string {
	adults := 1
	if req.AgeSpouse != nil {
		adults++
	}
	parts := []string{printer.Sprintf("%d adult", adults)}
	if adults > 1 {
		parts[0] += "s"
	}
	switch n := len(req.DependentAges); n {
	case 0:
	case 1:
		parts = append(parts, "1 dependent")
	default:
		parts = append(parts, printer.Sprintf("%d dependents", n))
	}
	place := req.County + ", " + req.State
	if name, ok := domain.StateName(req.State); ok {
		place = req.County + ", " + name
	}
	return strings.Join(parts, ", ") + " in " + place
}

// renderCalculation — сводка расчёта: домохозяйство, FPL, SLCSP и кредит на образцовом доходе по включённым сценариям.
func renderCalculation(calc *domain.Calculation, summary *domain.ExplanationRequest) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Premium tax credit") + "\n")
	b.WriteString(row("Household", describeHousehold(calc.Request)))
	b.WriteString(row("Federal poverty line", money(calc.Result.FPL)))
	b.WriteString(row("Benchmark plan (SLCSP)", money(calc.Result.SLCSP)+"/yr"))
	b.WriteString(row("Source", string(calc.Source)))

	if summary != nil {
		b.WriteString("\n" + titleStyle.Render("At "+money(summary.SampleIncome)+" (300% FPL)") + "\n")
		b.WriteString(row(scenarioLabels[domain.ScenarioBaseline], moneyCents(summary.PTCBaselineAtSample)))
		if calc.Request.IRA {
			b.WriteString(row(scenarioLabels[domain.ScenarioIRA], moneyCents(summary.PTCIRAAtSample)))
		}
		if calc.Request.FPL700 {
			b.WriteString(row(scenarioLabels[domain.Scenario700FPL], moneyCents(summary.PTC700FPLAtSample)))
		}
	}

	b.WriteString("\n" + row("Share link", "?"+domain.EncodeShareLink(calc.Request, false).Encode()))
	return b.String()
}

func renderExplanation(e *domain.ExplanationResult) string {
	var b strings.Builder
	b.WriteString("\n" + titleStyle.Render("Explanation") + "\n")
	if e.HouseholdDescription != "" {
		b.WriteString(sectionStyle.Render(e.HouseholdDescription) + "\n")
	}
	for _, s := range e.Sections {
		b.WriteString("\n" + valueStyle.Render(s.Title) + "\n")
		b.WriteString(sectionStyle.Render(s.Content) + "\n")
	}
	return b.String()
}
