package ani

import "math"

// RegressionOpts holds the table-baked coefficients of the learned ANI
// correction model, following the same Opts/DefaultOpts struct-of-constants
// pattern the teacher uses for its own tunables (fusion.Opts/DefaultOpts).
type RegressionOpts struct {
	Intercept      float64
	ANICoef        float64
	AFCoef         float64
	LogAnchorsCoef float64
	CCoef          float64
}

// DefaultRegressionOpts are the baked-in coefficients for the default
// learned-ANI correction, fit offline against a mutation-rate benchmark; the
// reference tool documents no further rationale for the specific values.
var DefaultRegressionOpts = RegressionOpts{
	Intercept:      0.01,
	ANICoef:        0.98,
	AFCoef:         0.015,
	LogAnchorsCoef: 0.002,
	CCoef:          -0.00005,
}

// Auto-activation thresholds for the learned-ANI tri-state (spec.md §4.5):
// enabled by default when c >= MinCForAuto and estimated aligned bases >=
// MinAlignedBasesForAuto.
const (
	MinCForAuto            = 70
	MinAlignedBasesForAuto = 150_000
)

// ShouldAutoApply reports whether the learned correction auto-activates for
// a comparison run with seed compression factor c over alignedBases aligned
// query bases.
func ShouldAutoApply(c int, alignedBases uint64) bool {
	return c >= MinCForAuto && alignedBases >= MinAlignedBasesForAuto
}

// ApplyRegression maps a raw ANI estimate to a corrected one using opts'
// table-baked linear model over (ani, af, log(numAnchors), c). The result is
// clamped to [0,1].
func ApplyRegression(rawANI, af float64, numAnchors, c int, opts RegressionOpts) float64 {
	if numAnchors <= 0 {
		return rawANI
	}
	corrected := opts.Intercept +
		opts.ANICoef*rawANI +
		opts.AFCoef*af +
		opts.LogAnchorsCoef*math.Log(float64(numAnchors)) +
		opts.CCoef*float64(c)
	if corrected > 1 {
		corrected = 1
	}
	if corrected < 0 {
		corrected = 0
	}
	return corrected
}
