package glacier

import (
	"math"

	"github.com/benhills/icepack/utils"
)

// Units are meters, years and megapascals
const (
	year = 365.25 * 24 * 3600
)

// Constants are the physical constants and tolerances of the ice flow model
type Constants struct {
	RhoIce, RhoWater      float64 // MPa yr^2 / m^2
	Gravity               float64 // m / yr^2
	IdealGas              float64 // kJ / mol / K
	GlenExponent          float64
	Temperature           float64 // K, uniform
	A0Cold, A0Warm        float64 // MPa^-n / yr
	QCold, QWarm          float64 // kJ / mol
	TransitionTemperature float64 // K
	FlotationTolerance    float64
	StrainRateMin         float64 // 1 / yr, keeps the viscosity finite at rest
}

// DensityFromSI converts kg / m^3 to MPa yr^2 / m^2
func DensityFromSI(rho float64) float64 { return rho / (year * year) * 1.e-6 }

// AccelerationFromSI converts m / s^2 to m / yr^2
func AccelerationFromSI(g float64) float64 { return g * year * year }

func DefaultConstants() Constants {
	return Constants{
		RhoIce:                DensityFromSI(917),
		RhoWater:              DensityFromSI(1024),
		Gravity:               AccelerationFromSI(9.81),
		IdealGas:              8.3144621e-3,
		GlenExponent:          3,
		Temperature:           263.15,
		A0Cold:                3.985e-13 * year * 1.e18,
		A0Warm:                1.916e3 * year * 1.e18,
		QCold:                 60,
		QWarm:                 139,
		TransitionTemperature: 263.215,
		FlotationTolerance:    1.e-4,
		StrainRateMin:         1.e-8,
	}
}

// RateFactor is the Arrhenius fluidity A(T) of Glen's flow law
func (c Constants) RateFactor(T float64) float64 {
	A0, Q := c.A0Cold, c.QCold
	if T >= c.TransitionTemperature {
		A0, Q = c.A0Warm, c.QWarm
	}
	return A0 * math.Exp(-Q/(c.IdealGas*T))
}

// Viscosity is the power law viscosity 1/2 A^(-1/n) epsE^(1/n - 1), without the thickness factor
func (c Constants) Viscosity(A, epsE float64) float64 {
	n := c.GlenExponent
	return 0.5 * math.Pow(A, -1/n) * math.Pow(epsE, 1/n-1)
}

// power raises x to the Glen exponent, by multiplication when the exponent is integral
func (c Constants) power(x float64) float64 {
	if utils.IsIntegral(c.GlenExponent) {
		return utils.POW(x, int(c.GlenExponent))
	}
	return math.Pow(x, c.GlenExponent)
}

// FlotationFactor is the fraction of the thickness above sea level when the ice floats
func (c Constants) FlotationFactor() float64 {
	return 1 - c.RhoIce/c.RhoWater
}

type IceState uint8

const (
	Grounded IceState = iota
	Floating
)

func (s IceState) String() string {
	if s == Floating {
		return "Floating"
	}
	return "Grounded"
}

/*
ClassifyFlotation is the step function separating grounded from floating ice. excess is the relative height of the
surface above its flotation height, s / ((1 - rhoI/rhoW) h) - 1. Ice exactly at the tolerance is grounded.
*/
func ClassifyFlotation(excess, tol float64) IceState {
	if excess > tol {
		return Floating
	}
	return Grounded
}

func (c Constants) IceStateAt(s, h float64) IceState {
	return ClassifyFlotation(s/(c.FlotationFactor()*h)-1, c.FlotationTolerance)
}

/*
IceShelfStrainRate is the along flow strain rate of a floating slab of uniform thickness h spreading freely into the
ocean with rate factor A, du/dx = A (rhoI g h (1 - rhoI/rhoW) / 4)^n.
*/
func (c Constants) IceShelfStrainRate(A, h float64) float64 {
	return A * c.power(c.RhoIce*c.Gravity*h*c.FlotationFactor()/4)
}
