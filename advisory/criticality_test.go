package advisory

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func score(f float64) *float64 { return &f }

func TestCriticalityFromCVSS(t *testing.T) {
	tests := []struct {
		name       string
		v2, v3, v4 *float64
		want       Criticality
	}{
		{"no score", nil, nil, nil, Unknown},
		{"v2 low", score(2.6), nil, nil, Low},
		{"v2 medium", score(4.3), nil, nil, Medium},
		{"v2 high", score(10.0), nil, nil, High},
		{"v3 none", nil, score(0.0), nil, None},
		{"v3 low", nil, score(3.9), nil, Low},
		{"v3 medium", nil, score(6.9), nil, Medium},
		{"v3 high", nil, score(7.0), nil, High},
		{"v3 critical", nil, score(9.8), nil, Critical},
		{"v3 wins over v2", score(10.0), score(5.3), nil, Medium},
		{"v4 wins over v3", nil, score(9.8), score(2.1), Low},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, criticalityFromCVSS(tt.v2, tt.v3, tt.v4))
		})
	}
}

func TestCriticalityDisplayOrder(t *testing.T) {
	assert.Less(t, int(Critical), int(High))
	assert.Less(t, int(High), int(Medium))
	assert.Less(t, int(Medium), int(Low))
	assert.Less(t, int(Low), int(Unknown))
	assert.Less(t, int(Unknown), int(None))
}

func TestParseCriticality(t *testing.T) {
	for _, c := range []Criticality{Critical, High, Medium, Low, Unknown, None} {
		parsed, err := ParseCriticality(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}

	c, err := ParseCriticality(" HIGH ")
	require.NoError(t, err)
	assert.Equal(t, High, c)

	_, err = ParseCriticality("severe")
	assert.Error(t, err)
}

func TestCriticalityJSON(t *testing.T) {
	out, err := json.Marshal(map[string]Criticality{"criticality": Medium})
	require.NoError(t, err)
	assert.JSONEq(t, `{"criticality":"medium"}`, string(out))
}
