package calcservice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PolicyEngine/ACA-Calc/internal/domain"
)

func TestParseEvent(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Event
		wantErr bool
	}{
		{
			name:    "прогресс",
			payload: `{"step":"baseline","progress":25,"message":"Calculating baseline (2026)..."}`,
			want:    ProgressEvent{Step: "baseline", Percent: 25, Message: "Calculating baseline (2026)..."},
		},
		{
			name:    "кэш на стороне сервиса",
			payload: `{"step":"cached","progress":100,"message":"Using cached results"}`,
			want:    ProgressEvent{Step: "cached", Percent: 100, Message: "Using cached results"},
		},
		{
			name:    "прогресс больше 100 прижимается",
			payload: `{"step":"x","progress":140}`,
			want:    ProgressEvent{Step: "x", Percent: 100},
		},
		{
			name:    "отрицательный прогресс прижимается",
			payload: `{"progress":-3}`,
			want:    ProgressEvent{Percent: 0},
		},
		{
			name:    "результат",
			payload: `{"step":"complete","progress":100,"result":{"income":[0,1],"ptc_baseline":[5,4],"ptc_ira":[6,5],"ptc_700fpl":[6,5],"fpl":15650,"slcsp":7000}}`,
			want: CompleteEvent{Result: &domain.CalculationResult{
				Income: []float64{0, 1}, PTCBaseline: []float64{5, 4}, PTCIRA: []float64{6, 5}, PTC700FPL: []float64{6, 5},
				FPL: 15650, SLCSP: 7000,
			}},
		},
		{name: "ошибка с полем error", payload: `{"step":"error","error":"Calculation error: boom"}`, want: ErrorEvent{Message: "Calculation error: boom"}},
		{name: "ошибка с полем message", payload: `{"step":"error","message":"bad county"}`, want: ErrorEvent{Message: "bad county"}},
		{name: "ошибка без текста", payload: `{"step":"error"}`, want: ErrorEvent{Message: defaultStreamErrorMessage}},
		{name: "не JSON", payload: `{"step":`, wantErr: true},
		{name: "complete без результата", payload: `{"step":"complete","progress":100}`, wantErr: true},
		{name: "complete с кривыми разной длины", payload: `{"step":"complete","result":{"income":[0,1],"ptc_ira":[1]}}`, wantErr: true},
		{name: "прогресс не число", payload: `{"step":"x","progress":"half"}`, wantErr: true},
		{name: "неизвестная запись", payload: `{"step":"setup"}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEvent([]byte(tt.payload))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProgressEvent_Progress(t *testing.T) {
	p := ProgressEvent{Step: "setup", Percent: 10, Message: "Setting up household..."}.Progress()
	assert.Equal(t, domain.ProgressEvent{Percent: 10, Message: "Setting up household..."}, p)
}
