package crystal

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-6

func rotEpsEq(a, b *Rotation, eps float64) bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(a[i][j]-b[i][j]) > eps {
				return false
			}
		}
	}
	return true
}

func TestOperatorsAreRotations(t *testing.T) {
	for _, c := range []Class{Hexagonal, Cubic} {
		require.Equal(t, 12*int(c), c.Ops())
		for i := 0; i < c.Ops(); i++ {
			o := c.Op(i)
			id := o.MulTranspose(&o)
			assert.True(t, rotEpsEq(&id, &cubicOps[0], eps),
				"%s op %d is not orthogonal", c, i)

			det := o[0][0]*(o[1][1]*o[2][2]-o[1][2]*o[2][1]) -
				o[0][1]*(o[1][0]*o[2][2]-o[1][2]*o[2][0]) +
				o[0][2]*(o[1][0]*o[2][1]-o[1][1]*o[2][0])
			assert.InDelta(t, 1.0, det, eps, "%s op %d determinant", c, i)
		}
	}
}

func TestParseClass(t *testing.T) {
	c, err := ParseClass("cubic")
	require.NoError(t, err)
	assert.Equal(t, Cubic, c)

	c, err = ParseClass("Hexagonal")
	require.NoError(t, err)
	assert.Equal(t, Hexagonal, c)

	_, err = ParseClass("Tetragonal")
	assert.Error(t, err)
}

func TestEulerMatrix(t *testing.T) {
	table := []struct {
		e    Euler
		col3 [3]float64
	}{
		{Euler{0, 0, 0}, [3]float64{0, 0, 1}},
		{Euler{0, math.Pi / 2, 0}, [3]float64{0, 1, 0}},
		{Euler{0, math.Pi / 2, math.Pi / 2}, [3]float64{1, 0, 0}},
	}

	for i, test := range table {
		z := test.e.SampleZ()
		got := [3]float64{z.X, z.Y, z.Z}
		assert.InDeltaSlice(t, test.col3[:], got[:], eps, "%d) %v", i+1, test.e)
	}
}

func TestEulerFromMatrix(t *testing.T) {
	gen := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		e := Euler{
			gen.Float64() * 2 * math.Pi,
			0.01 + gen.Float64()*(math.Pi-0.02),
			gen.Float64() * 2 * math.Pi,
		}
		g := e.Matrix()
		out, ok := EulerFromMatrix(&g)
		require.True(t, ok)
		assert.InDeltaSlice(t, e[:], out[:], 1e-6, "%d) %v", i, e)
	}

	g := Euler{0.3, 0, 0.2}.Matrix()
	_, ok := EulerFromMatrix(&g)
	assert.False(t, ok)
}

func TestMisorientationSymmetricVariants(t *testing.T) {
	gen := rand.New(rand.NewSource(7))
	for _, c := range []Class{Hexagonal, Cubic} {
		e := Euler{1.1, 0.7, 2.3}
		g := e.Matrix()
		for i := 0; i < c.Ops(); i++ {
			o := c.Op(i)
			og := o.Mul(&g)
			e2, ok := EulerFromMatrix(&og)
			if !ok {
				continue
			}
			w, _ := Misorientation(c, e, e2)
			assert.InDelta(t, 0, w, 1e-5, "%s op %d", c, i)
		}

		e1 := Euler{gen.Float64(), gen.Float64(), gen.Float64()}
		e2 := Euler{gen.Float64(), gen.Float64(), gen.Float64()}
		w12, _ := Misorientation(c, e1, e2)
		w21, _ := Misorientation(c, e2, e1)
		assert.InDelta(t, w12, w21, 1e-9)
	}
}

func TestMisorientationKnownAngle(t *testing.T) {
	// A 30 degree rotation about the sample z axis is shorter than any of
	// its cubic equivalents.
	e1 := Euler{0, 0, 0}
	e2 := Euler{math.Pi / 6, 0, 0}
	w, axis := Misorientation(Cubic, e1, e2)
	assert.InDelta(t, 30.0, w*180/math.Pi, 1e-6)
	assert.InDelta(t, 1.0, math.Abs(axis.Z), 1e-6)
	assert.InDelta(t, 30.0, MisorientationDegrees(Cubic, e1, e2), 1e-6)

	// Cubic misorientations never exceed 62.8 degrees.
	gen := rand.New(rand.NewSource(11))
	for i := 0; i < 50; i++ {
		e1 := Euler{gen.Float64() * 6, gen.Float64() * 3, gen.Float64() * 6}
		e2 := Euler{gen.Float64() * 6, gen.Float64() * 3, gen.Float64() * 6}
		assert.LessOrEqual(t, MisorientationDegrees(Cubic, e1, e2), 62.81)
	}
}

func TestEulerHistogram(t *testing.T) {
	h := &EulerHistogram{}
	h.Add(Euler{0.2, 0.3, 0.4})
	assert.Equal(t, 1, h.Records)
	assert.True(t, h.Total > 0)
	assert.GreaterOrEqual(t, h.Counts[binOf(0.2)][binOf(0.3)][binOf(0.4)], 1)

	sum := 0
	for i := range h.Counts {
		for j := range h.Counts[i] {
			for l := range h.Counts[i][j] {
				sum += h.Counts[i][j][l]
			}
		}
	}
	assert.Equal(t, h.Total, sum)
	assert.Equal(t, EulerBins-1, binOf(math.Pi/2))
}

func TestAssign(t *testing.T) {
	rng := rand.New(rand.NewSource(5))

	h := &EulerHistogram{}
	h.Counts[2][3][4] = 4
	h.Records = 10

	es := h.Assign(10, rng)
	require.Len(t, es, 10)
	for i := 0; i < 4; i++ {
		assert.Equal(t, 2, binOf(es[i][0]))
		assert.Equal(t, 3, binOf(es[i][1]))
		assert.Equal(t, 4, binOf(es[i][2]))
	}
	for _, e := range es[4:] {
		assert.True(t, e[0] >= 0 && e[0] < 2*math.Pi)
		assert.True(t, e[1] >= 0 && e[1] < math.Pi)
		assert.True(t, e[2] >= 0 && e[2] < 2*math.Pi)
	}

	empty := &EulerHistogram{}
	assert.Len(t, empty.Assign(3, rng), 3)
}

func TestIPFColor(t *testing.T) {
	// [001] || z is pure red.
	c := IPFColor(Euler{0, 0, 0})
	assert.InDeltaSlice(t, []float64{1, 0.25, 0.25}, c[:], eps)

	gen := rand.New(rand.NewSource(13))
	for i := 0; i < 20; i++ {
		c := IPFColor(Euler{gen.Float64() * 6, gen.Float64() * 3, gen.Float64() * 6})
		for _, x := range c {
			assert.True(t, x >= 0.25-eps && x <= 1+eps, "%v", c)
		}
	}
}
