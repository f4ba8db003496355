package domain

// ExplanationRequest — производный запрос к сервису объяснений: домохозяйство, пороги программ
// и значения кредита по сценариям на образцовом доходе.
type ExplanationRequest struct {
	AgeHead       int    `json:"age_head"`
	AgeSpouse     *int   `json:"age_spouse,omitempty"`
	DependentAges []int  `json:"dependent_ages"`
	State         string `json:"state"`
	County        string `json:"county"`

	IsExpansionState          bool    `json:"is_expansion_state"`
	MedicaidAdultThresholdPct float64 `json:"medicaid_adult_threshold_pct"`
	MedicaidChildThresholdPct float64 `json:"medicaid_child_threshold_pct"`
	CHIPThresholdPct          float64 `json:"chip_threshold_pct"`

	FPL          float64 `json:"fpl"`
	FPL400Income float64 `json:"fpl_400_income"`
	FPL700Income float64 `json:"fpl_700_income"`
	SLCSP        float64 `json:"slcsp"`

	SampleIncome        float64 `json:"sample_income"`
	PTCBaselineAtSample float64 `json:"ptc_baseline_at_sample"`
	PTCIRAAtSample      float64 `json:"ptc_ira_at_sample"`
	PTC700FPLAtSample   float64 `json:"ptc_700fpl_at_sample"`
}

// Section — один блок повествования и состояние графика, к которому он привязан.
type Section struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	ChartState string `json:"chartState"`
}

// ExplanationResult — ответ сервиса объяснений. Не кэшируется.
type ExplanationResult struct {
	Sections             []Section `json:"sections"`
	HouseholdDescription string    `json:"household_description"`
}
