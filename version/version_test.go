package version

import (
	"errors"
	"fmt"
	"sort"
	"testing"

	semver "github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		segments []string
		pre      bool
	}{
		{"3.2.10", []string{"3", "2", "10"}, false},
		{"1", []string{"1"}, false},
		{"2.10.3.rc1", []string{"2", "10", "3", "rc", "1"}, true},
		{"1.0rc1", []string{"1", "0", "rc", "1"}, true},
		{"1.0-beta", []string{"1", "0", "pre", "beta"}, true},
		{"  4.1.0  ", []string{"4", "1", "0"}, false},
		{"007.01", []string{"7", "1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.segments, v.Segments())
			assert.Equal(t, tt.pre, v.Prerelease())
		})
	}
}

func TestParseMalformed(t *testing.T) {
	for _, input := range []string{"", "   ", "abc", "1..2", ".1", "1.2.", "1.2 3", "v1.0", "1.0_beta", ">= 1.0"} {
		t.Run(fmt.Sprintf("%q", input), func(t *testing.T) {
			_, err := Parse(input)
			require.Error(t, err)

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, input, perr.Input)
			assert.Equal(t, "version", perr.Kind)
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0", "1.0.0", 0},
		{"1", "1.0.0.0", 0},
		{"3.2.10", "3.2.11", -1},
		{"3.2.13", "3.2.11", 1},
		{"2.10", "2.9", 1},
		{"1.0.a", "1.0", -1},
		{"1.0.rc1", "1.0", -1},
		{"1.0.rc1", "1.0.rc2", -1},
		{"1.0.beta", "1.0.rc", -1},
		{"1.0.a", "1.0.0.a", 0},
		{"1.0.a.0", "1.0.a", 0},
		{"1.0-beta", "1.0.pre.beta", 0},
		{"1.0.0.1", "1.0.0", 1},
		{"99999999999999999999999.0", "99999999999999999999998.9", 1},
		{"18446744073709551616", "18446744073709551615", 1},
		{"0001.2", "1.2", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			a, b := MustParse(tt.a), MustParse(tt.b)
			assert.Equal(t, tt.want, Compare(a, b))
			assert.Equal(t, -tt.want, Compare(b, a), "comparison must be antisymmetric")
		})
	}
}

var orderingCorpus = []string{
	"0", "0.1", "0.9.9", "1.0.a", "1.0.alpha.2", "1.0.b1", "1.0.rc", "1.0.rc1", "1.0",
	"1.0.0.1", "1.0.1", "1.1", "1.9", "1.10", "2.0.0.pre", "2", "2.0.1",
	"3.2.10", "3.2.11", "3.2.13", "4.0.0.beta1", "4.0.0", "4.0.2", "4.1.0", "4.1.1",
	"10.0", "10.0.0.1", "100",
}

func TestCompareTransitive(t *testing.T) {
	versions := make([]Version, len(orderingCorpus))
	for i, s := range orderingCorpus {
		versions[i] = MustParse(s)
	}

	for _, a := range versions {
		for _, b := range versions {
			for _, c := range versions {
				if Compare(a, b) < 0 && Compare(b, c) < 0 {
					assert.Equal(t, -1, Compare(a, c), "%s < %s < %s", a, b, c)
				}
				if Compare(a, b) == 0 && Compare(b, c) == 0 {
					assert.Equal(t, 0, Compare(a, c), "%s = %s = %s", a, b, c)
				}
			}
		}
	}
}

func TestCompareSortsCorpus(t *testing.T) {
	versions := make([]Version, len(orderingCorpus))
	for i, s := range orderingCorpus {
		versions[i] = MustParse(s)
	}
	// shuffle deterministically by reversing, then sort back
	for i, j := 0, len(versions)-1; i < j; i, j = i+1, j-1 {
		versions[i], versions[j] = versions[j], versions[i]
	}
	sort.SliceStable(versions, func(i, j int) bool { return versions[i].Less(versions[j]) })

	got := make([]string, len(versions))
	for i, v := range versions {
		got[i] = v.String()
	}
	assert.Equal(t, orderingCorpus, got)
}

func TestCompareAgreesWithSemverForReleases(t *testing.T) {
	releases := []string{"0.0.1", "0.1.0", "1.0.0", "1.0.10", "1.2.3", "1.10.0", "2.0.0", "10.4.7", "10.40.0"}

	for _, a := range releases {
		for _, b := range releases {
			sa, err := semver.NewVersion(a)
			require.NoError(t, err)
			sb, err := semver.NewVersion(b)
			require.NoError(t, err)

			assert.Equal(t, sa.Compare(sb), Compare(MustParse(a), MustParse(b)), "%s vs %s", a, b)
		}
	}
}

func TestRelease(t *testing.T) {
	assert.Equal(t, "1.0", MustParse("1.0.rc1").Release().String())
	assert.Equal(t, "4.0.0", MustParse("4.0.0.beta.2").Release().String())
	assert.Equal(t, "3.2.1", MustParse("3.2.1").Release().String())
}

func TestBump(t *testing.T) {
	tests := map[string]string{
		"3.2.22":    "3.3",
		"1.4":       "2",
		"5":         "6",
		"1.9.rc1":   "2",
		"2.0.9.999": "2.0.10",
		"1.99":      "2",
	}

	for input, want := range tests {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, want, MustParse(input).Bump().String())
		})
	}
}

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() { MustParse("not a version") })
}
