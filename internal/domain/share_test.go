package domain

import (
	"net/url"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeShareLink_Golden(t *testing.T) {
	g := goldie.New(t)

	single := CalculationRequest{
		AgeHead:       45,
		DependentAges: []int{},
		State:         "PA",
		County:        "Lebanon County",
		Policies:      Policies{IRA: true},
	}
	g.Assert(t, "share_link_single_adult", []byte(EncodeShareLink(single, true).Encode()))

	family := CalculationRequest{
		AgeHead:       40,
		AgeSpouse:     intPtr(38),
		DependentAges: []int{5, 8},
		State:         "CA",
		County:        "Los Angeles County",
		ZipCode:       "90001",
		Policies:      Policies{IRA: true, FPL700: true},
	}
	g.Assert(t, "share_link_family", []byte(EncodeShareLink(family, false).Encode()))
}

func TestShareLink_RoundTripKeepsCacheKey(t *testing.T) {
	req := baseRequest()

	link := EncodeShareLink(req, true).Encode()
	parsed, err := url.ParseQuery(link)
	require.NoError(t, err)

	got, auto, err := ParseShareLink(parsed)
	require.NoError(t, err)
	assert.True(t, auto)
	assert.Equal(t, req, got)
	assert.Equal(t, DeriveCacheKey(req), DeriveCacheKey(got))
}

func TestShareLink_ExplainFlag(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"1", true},
		{"true", true},
		{"0", false},
		{"yes", false},
	}
	for _, tt := range tests {
		v := url.Values{ParamExplain: {tt.value}}
		_, auto := DecodeShareLink(v)
		assert.Equal(t, tt.want, auto, "explain=%q", tt.value)
	}
}

func TestParseShareLink_Invalid(t *testing.T) {
	_, _, err := ParseShareLink(url.Values{ParamAge: {"45"}, ParamState: {"PA"}})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, FieldCounty, verr.Field)
}
