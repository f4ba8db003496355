package explainer

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/PolicyEngine/ACA-Calc/internal/domain"
)

const (
	sampleFPLMultiple = 3
	fpl400Multiple    = 4
	fpl700Multiple    = 7
)

// BuildRequest собирает запрос объяснения: домохозяйство из запроса расчёта, пороги программ штата,
// FPL и SLCSP из результата, образцовый доход 3×FPL и значения кредита по сценариям на этом доходе.
func (u *UseCase) BuildRequest(calc *domain.Calculation) (domain.ExplanationRequest, error) {
	if calc == nil || calc.Result == nil {
		return domain.ExplanationRequest{}, domain.ErrNoResult
	}
	req, res := calc.Request, calc.Result

	deps := req.DependentAges
	if deps == nil {
		deps = []int{}
	}
	out := domain.ExplanationRequest{
		AgeHead:       req.AgeHead,
		AgeSpouse:     req.AgeSpouse,
		DependentAges: deps,
		State:         req.State,
		County:        req.County,
		FPL:           res.FPL,
		FPL400Income:  dollars(res.FPL, fpl400Multiple),
		FPL700Income:  dollars(res.FPL, fpl700Multiple),
		SLCSP:         res.SLCSP,
		SampleIncome:  dollars(res.FPL, sampleFPLMultiple),
	}

	if th, ok := u.table.Lookup(req.State); ok {
		out.IsExpansionState = th.IsExpansion
		out.MedicaidAdultThresholdPct = th.AdultPct
		out.MedicaidChildThresholdPct = th.ChildPct
		out.CHIPThresholdPct = th.CHIPPct
	} else {
		u.log.Warn("no eligibility thresholds for state", "state", req.State)
	}

	out.PTCBaselineAtSample = cents(interpolate(res.Income, res.PTCBaseline, out.SampleIncome))
	out.PTCIRAAtSample = cents(interpolate(res.Income, res.PTCIRA, out.SampleIncome))
	out.PTC700FPLAtSample = cents(interpolate(res.Income, res.PTC700FPL, out.SampleIncome))
	return out, nil
}

// dollars — fpl·k, округлённое до доллара.
func dollars(fpl float64, k int64) float64 {
	v, _ := decimal.NewFromFloat(fpl).Mul(decimal.NewFromInt(k)).Round(0).Float64()
	return v
}

func cents(v float64) float64 {
	r, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return r
}

// interpolate — линейная интерполяция кривой ys по возрастающей сетке xs в точке x.
// За пределами сетки берётся крайнее значение. Пустая или непараллельная кривая даёт 0.
func interpolate(xs, ys []float64, x float64) float64 {
	n := len(xs)
	if n == 0 || len(ys) != n {
		return 0
	}
	if x <= xs[0] {
		return ys[0]
	}
	if x >= xs[n-1] {
		return ys[n-1]
	}
	i := sort.SearchFloat64s(xs, x)
	if xs[i] == x {
		return ys[i]
	}
	x0, x1 := xs[i-1], xs[i]
	y0, y1 := ys[i-1], ys[i]
	return y0 + (y1-y0)*(x-x0)/(x1-x0)
}
