package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultParamsValidate(t *testing.T) {
	p := Default(ModeDist)
	assert.NoError(t, p.Validate())
}

func TestValidateRejectsNegativeC(t *testing.T) {
	p := Default(ModeDist)
	p.C = -1
	err := p.Validate()
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestValidateRejectsMarkerCBelowC(t *testing.T) {
	p := Default(ModeSketch)
	p.MarkerC = p.C - 1
	assert.Error(t, p.Validate())
}

func TestValidateRejectsOutOfRangeScreenThreshold(t *testing.T) {
	p := Default(ModeDist)
	p.ScreenThreshold = 1.5
	assert.Error(t, p.Validate())
}

func TestValidateRejectsAAIndividualContigRSearch(t *testing.T) {
	p := Default(ModeSearch)
	p.UseAA = true
	p.IndividualContigR = true
	assert.Error(t, p.Validate())
}

func TestValidateAllowsAAIndividualContigROutsideSearch(t *testing.T) {
	p := Default(ModeDist)
	p.UseAA = true
	p.IndividualContigR = true
	assert.NoError(t, p.Validate())
}

func TestPresetAppliesC(t *testing.T) {
	p := Default(ModeDist)
	PresetFast.Apply(&p)
	assert.Equal(t, 200, p.C)
}

func TestResolveFullIndexAutoActivatesAboveThreshold(t *testing.T) {
	p := Default(ModeDist)
	r := Resolve(p, 101, 0)
	assert.True(t, r.FullIndexEnabled)

	r2 := Resolve(p, 50, 0)
	assert.False(t, r2.FullIndexEnabled)
}

func TestResolveLearnedANIAutoGating(t *testing.T) {
	p := Default(ModeDist)
	p.C = 70
	r := Resolve(p, 1, 150_000)
	assert.True(t, r.LearnedANIEnabled)

	r2 := Resolve(p, 1, 1000)
	assert.False(t, r2.LearnedANIEnabled)
}

func TestResolveHonorsExplicitTriState(t *testing.T) {
	p := Default(ModeDist)
	p.LearnedANI = TriOff
	r := Resolve(p, 1, 1_000_000)
	assert.False(t, r.LearnedANIEnabled)
}
