package version

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequirement(t *testing.T) {
	tests := []struct {
		input   string
		op      Operator
		version string
	}{
		{">= 3.2.11", OpGreaterOrEqual, "3.2.11"},
		{"<4.0.2", OpLess, "4.0.2"},
		{"~> 3.2.22", OpPessimistic, "3.2.22"},
		{"!= 1.0", OpNotEqual, "1.0"},
		{"= 2.0", OpEqual, "2.0"},
		{"2.0", OpEqual, "2.0"},
		{"  <=  1.9.rc1 ", OpLessOrEqual, "1.9.rc1"},
		{"> 0", OpGreater, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r, err := ParseRequirement(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.op, r.Op)
			assert.Equal(t, tt.version, r.Version.String())
		})
	}
}

func TestParseRequirementMalformed(t *testing.T) {
	for _, input := range []string{"", ">=", "=> 1.0", ">> 1.0", "~ 1.0", ">= one"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseRequirement(input)
			require.Error(t, err)

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
		})
	}
}

func TestRequirementSatisfiedBy(t *testing.T) {
	tests := []struct {
		req     string
		version string
		want    bool
	}{
		{">= 3.2.11", "3.2.10", false},
		{">= 3.2.11", "3.2.11", true},
		{">= 3.2.11", "3.2.13", true},
		{"< 4.0.2", "4.0.1", true},
		{"< 4.0.2", "4.0.2", false},
		{"< 4.0.2", "4.0.2.rc1", true},
		{"<= 1.0", "1.0.0", true},
		{"> 1.0", "1.0.0.1", true},
		{"> 1.0", "1.0.0", false},
		{"= 1.0", "1.0.0", true},
		{"!= 1.0", "1.0.1", true},
		{"!= 1.0", "1.0.0", false},
		{"~> 3.2.22", "3.2.22", true},
		{"~> 3.2.22", "3.2.99", true},
		{"~> 3.2.22", "3.3.0", false},
		{"~> 3.2.22", "3.2.21", false},
		{"~> 3.2", "3.9.9", true},
		{"~> 3.2", "4.0", false},
		{"~> 3.2.22", "3.3.0.rc1", false},
		{"~> 4.0.0.beta", "4.0.0.rc1", true},
		{"~> 4.0.0.beta", "4.1.0", false},
	}

	for _, tt := range tests {
		t.Run(tt.req+"_"+tt.version, func(t *testing.T) {
			r, err := ParseRequirement(tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.SatisfiedBy(MustParse(tt.version)))
		})
	}
}

func TestConstraint(t *testing.T) {
	c, err := ParseConstraint(">= 4.1.0, < 4.1.1")
	require.NoError(t, err)
	require.Len(t, c, 2)

	assert.Equal(t, ">= 4.1.0, < 4.1.1", c.String())
	assert.True(t, c.SatisfiedBy(MustParse("4.1.0")))
	assert.True(t, c.SatisfiedBy(MustParse("4.1.0.1")))
	assert.False(t, c.SatisfiedBy(MustParse("4.1.1")))
	assert.False(t, c.SatisfiedBy(MustParse("4.0.9")))
}

func TestConstraintRendersBareVersionWithOperator(t *testing.T) {
	c, err := ParseConstraint("1.2.3")
	require.NoError(t, err)
	assert.Equal(t, "= 1.2.3", c.String())
}

func TestParseConstraintMalformed(t *testing.T) {
	for _, input := range []string{"", " ", ">= 1.0,", ">= 1.0, lol", ", < 2"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseConstraint(input)
			require.Error(t, err)

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, "constraint", perr.Kind)
		})
	}
}

func TestParseConstraints(t *testing.T) {
	sets, err := ParseConstraints([]string{"~> 3.2.22", ">= 4.1.14"})
	require.NoError(t, err)
	require.Len(t, sets, 2)

	_, err = ParseConstraints([]string{"~> 3.2.22", "bogus"})
	require.Error(t, err)
}
