package eligibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_CoversAllStates(t *testing.T) {
	table := Default()
	assert.Equal(t, 51, table.Len())

	for _, code := range []string{"PA", "TX", "DC", "WY"} {
		_, ok := table.Lookup(code)
		assert.True(t, ok, code)
	}
}

func TestLookup(t *testing.T) {
	table := Default()

	tests := []struct {
		name      string
		state     string
		expansion bool
		adult     float64
	}{
		{"штат с расширением", "PA", true, 138},
		{"штат без расширения", "FL", false, 32},
		{"нижний регистр и пробелы", " tx ", false, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th, ok := table.Lookup(tt.state)
			require.True(t, ok)
			assert.Equal(t, tt.expansion, th.IsExpansion)
			assert.Equal(t, tt.adult, th.AdultPct)
		})
	}

	_, ok := table.Lookup("ZZ")
	assert.False(t, ok)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("states: ["))
	assert.Error(t, err)

	_, err = Parse([]byte("states: {}"))
	assert.Error(t, err)

	_, err = Parse([]byte("states:\n  PA: {expansion: true, adult: -1, child: 0, chip: 0}\n"))
	assert.Error(t, err)
}
