package rankconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := "../../config/profiles/default.yaml"

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("profile file not found")
	}

	p, yamlData, err := Load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, yamlData)

	assert.Equal(t, "default", p.Meta.ProfileID)
	assert.Equal(t, "store", p.PriorityLocation)
	require.NotNil(t, p.SlowLocation)
	assert.Equal(t, 50, p.SlowLocation.Penalty)

	// 파일 프로필 == 내장 기본값
	fileHash, err := Hash(p)
	require.NoError(t, err)
	defaultHash, err := Hash(Default())
	require.NoError(t, err)
	assert.Equal(t, defaultHash, fileHash)
	assert.Len(t, fileHash, 64)
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Validate(Default()))
	assert.Empty(t, Warn(Default()))
}

func TestParse_UnknownFieldFails(t *testing.T) {
	data := []byte(`
locations:
  - name: warehouse
    rank: 1
price_tiers:
  - penalty: 0
out_of_stock_rank: 100
typo_field: true
`)
	_, err := Parse(data)
	assert.Error(t, err)
}

func TestParse_Minimal(t *testing.T) {
	data := []byte(`
locations:
  - name: warehouse
    rank: 1
price_tiers:
  - penalty: 0
out_of_stock_rank: 100
`)
	p, err := Parse(data)
	require.NoError(t, err)
	assert.Len(t, Warn(p), 3)
}

func TestLoadOrDefault(t *testing.T) {
	p, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, "default", p.Meta.ProfileID)

	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("locations: []\n"), 0o644))

	_, err = LoadOrDefault(path)
	assert.Error(t, err)
}

func TestPriceTier_Matches(t *testing.T) {
	excl := PriceTier{UpTo: bound(70)}
	incl := PriceTier{UpTo: bound(200), Inclusive: true}
	open := PriceTier{}

	assert.True(t, excl.Matches(69.99))
	assert.False(t, excl.Matches(70))
	assert.True(t, incl.Matches(200))
	assert.False(t, incl.Matches(200.01))
	assert.True(t, open.Matches(1e9))
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Profile)
		field  string
	}{
		{
			name:   "no locations",
			mutate: func(p *Profile) { p.Locations = nil },
			field:  "locations",
		},
		{
			name: "duplicate location",
			mutate: func(p *Profile) {
				p.Locations = append(p.Locations, Location{Name: "warehouse", Rank: 3})
			},
			field: "locations[4].name",
		},
		{
			name:   "no tiers",
			mutate: func(p *Profile) { p.PriceTiers = nil },
			field:  "price_tiers",
		},
		{
			name: "bounded last tier",
			mutate: func(p *Profile) {
				p.PriceTiers[4].UpTo = bound(1000)
			},
			field: "price_tiers[4].up_to",
		},
		{
			name: "unbounded middle tier",
			mutate: func(p *Profile) {
				p.PriceTiers[2].UpTo = nil
			},
			field: "price_tiers[2].up_to",
		},
		{
			name: "decreasing bounds",
			mutate: func(p *Profile) {
				p.PriceTiers[1].UpTo = bound(60)
			},
			field: "price_tiers[1].up_to",
		},
		{
			name: "first tier excludes zero",
			mutate: func(p *Profile) {
				p.PriceTiers[0].UpTo = bound(0)
			},
			field: "price_tiers[0].up_to",
		},
		{
			name:   "unknown priority location",
			mutate: func(p *Profile) { p.PriorityLocation = "moon" },
			field:  "priority_location",
		},
		{
			name: "priority rank too close",
			mutate: func(p *Profile) {
				p.Locations[0].Rank = -10
			},
			field: "priority_location",
		},
		{
			name: "slow location unknown",
			mutate: func(p *Profile) {
				p.SlowLocation.Location = "moon"
			},
			field: "slow_location.location",
		},
		{
			name: "slow location is priority",
			mutate: func(p *Profile) {
				p.SlowLocation.Location = "store"
			},
			field: "slow_location.location",
		},
		{
			name: "slow penalty not worse than fast stock",
			mutate: func(p *Profile) {
				p.SlowLocation.Penalty = 20
			},
			field: "slow_location.penalty",
		},
		{
			name: "slow penalty not better than no stock",
			mutate: func(p *Profile) {
				p.SlowLocation.Penalty = 1000
			},
			field: "slow_location.penalty",
		},
		{
			name:   "out of stock rank too low",
			mutate: func(p *Profile) { p.OutOfStockRank = 10; p.SlowLocation = nil },
			field:  "out_of_stock_rank",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Default()
			tt.mutate(p)

			err := Validate(p)
			require.Error(t, err)

			var verr ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}
