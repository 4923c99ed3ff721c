package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVector(t *testing.T) {
	v := []float64{3, -4, 0}
	c := CopyOf(v)
	c[0] = 1
	assert.Equal(t, 3., v[0])
	assert.Equal(t, 5., Norm2(v))
	assert.Equal(t, 4., MaxAbs(v))
	assert.Equal(t, 0., Norm2(nil))
	assert.Equal(t, 0., MaxAbs(nil))
	AddScaled(c, 2, v)
	assert.Equal(t, []float64{7, -8, 0}, c)
	Project(c, []int{1})
	assert.Equal(t, []float64{7, 0, 0}, c)
	ZeroArray(c)
	assert.Equal(t, []float64{0, 0, 0}, c)
	assert.Equal(t, []float64{2.5, 2.5}, ConstArray(2, 2.5))
}

func TestMath(t *testing.T) {
	for p := -10; p <= 10; p++ {
		assert.InDelta(t, math.Pow(1.3, float64(p)), POW(1.3, p), 1.e-12*math.Pow(1.3, math.Abs(float64(p))))
	}
	assert.True(t, IsIntegral(3))
	assert.False(t, IsIntegral(3.5))
	assert.False(t, IsIntegral(9))
	assert.True(t, IsNan(math.NaN()))
	assert.True(t, IsNan([]float64{1, math.Inf(-1)}))
	assert.False(t, IsNan([]float64{1, 2}))
	assert.False(t, IsNan("text"))
	assert.Contains(t, GetMemUsage(), "Alloc")
}

func TestBoundaryTypes(t *testing.T) {
	assert.Equal(t, BoundaryCalvingFront, ParseBoundaryName(" Terminus "))
	assert.Equal(t, BoundarySlipWall, ParseBoundaryName("symmetry"))
	assert.Equal(t, BoundaryNone, ParseBoundaryName("free"))
	assert.Equal(t, BoundaryDirichlet, ParseBoundaryName("unknown_marker"))
	assert.Equal(t, "SlipWall", BoundarySlipWall.String())
	assert.Equal(t, "Unknown", BoundaryType(17).String())
}
