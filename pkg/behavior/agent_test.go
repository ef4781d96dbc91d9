package behavior

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/lao-tseu-is-alive/go-flock3d/pkg/geometry"
	"github.com/stretchr/testify/assert"
)

func TestAgent_Integrate(t *testing.T) {
	t.Run("accumulates forces then clears them", func(t *testing.T) {
		a := agentAt(10, 10, 10)
		a.ApplyForce(geometry.Vector3D{X: 0.2})
		a.ApplyForce(geometry.Vector3D{Y: 0.1})
		assertVector(t, geometry.Vector3D{X: 0.2, Y: 0.1}, a.Acceleration())

		a.Integrate(1)

		assertVector(t, geometry.Vector3D{X: 0.2, Y: 0.1}, a.Velocity)
		assertVector(t, geometry.Vector3D{X: 10.2, Y: 10.1, Z: 10}, a.Position)
		assert.Equal(t, geometry.Zero, a.Acceleration())
	})

	t.Run("clamps speed", func(t *testing.T) {
		a := agentAt(0, 0, 0)
		a.Velocity = geometry.Vector3D{Z: 0.9}
		a.ApplyForce(geometry.Vector3D{Z: 5})

		a.Integrate(1)

		assert.InDelta(t, 1.0, a.Velocity.Len(), tolerance)
		assertVector(t, geometry.Vector3D{Z: 1}, a.Position)
	})

	t.Run("orientation follows velocity", func(t *testing.T) {
		a := agentAt(0, 0, 0)
		a.ApplyForce(geometry.Vector3D{Y: -0.5})
		a.Integrate(1)
		assertVector(t, geometry.Vector3D{Y: -1}, a.Forward)
	})

	t.Run("orientation kept when nearly stopped", func(t *testing.T) {
		a := agentAt(0, 0, 0)
		a.Forward = geometry.Vector3D{X: 1}
		a.ApplyForce(geometry.Vector3D{Z: OrientationThreshold / 2})
		a.Integrate(1)
		assertVector(t, geometry.Vector3D{X: 1}, a.Forward)
	})

	t.Run("orientation follows velocity at low max speed", func(t *testing.T) {
		const maxSpeed = OrientationThreshold * 0.8
		a := agentAt(50, 50, 50)
		a.Velocity = geometry.Vector3D{X: maxSpeed}
		a.Forward = geometry.Vector3D{Y: 1}
		a.Integrate(maxSpeed)
		assertVector(t, geometry.Vector3D{X: 1}, a.Forward)

		// still kept below the relative threshold
		a.Velocity = geometry.Vector3D{Z: maxSpeed * OrientationThreshold / 2}
		a.Integrate(maxSpeed)
		assertVector(t, geometry.Vector3D{X: 1}, a.Forward)
	})

	t.Run("non-finite force is dropped", func(t *testing.T) {
		a := agentAt(5, 5, 5)
		a.Velocity = geometry.Vector3D{X: 0.5}
		a.ApplyForce(geometry.Vector3D{X: math.NaN()})
		a.ApplyForce(geometry.Vector3D{Y: math.Inf(1)})

		a.Integrate(1)

		assert.True(t, a.IsFinite())
		assertVector(t, geometry.Vector3D{X: 5.5, Y: 5, Z: 5}, a.Position)
	})
}

func TestAgent_Respawn(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	bounds := geometry.Vector3D{X: 100, Y: 50, Z: 20}

	for i := 0; i < 200; i++ {
		a := New(i, KindOrdinary, bounds, 2, rng)
		assert.True(t, a.IsFinite())
		assert.GreaterOrEqual(t, a.Position.X, 0.0)
		assert.Less(t, a.Position.X, bounds.X)
		assert.GreaterOrEqual(t, a.Position.Y, 0.0)
		assert.Less(t, a.Position.Y, bounds.Y)
		assert.GreaterOrEqual(t, a.Position.Z, 0.0)
		assert.Less(t, a.Position.Z, bounds.Z)
		assert.LessOrEqual(t, a.Velocity.Len(), 2.0)
		assert.InDelta(t, 1.0, a.Forward.Len(), 1e-6)
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "ordinary", KindOrdinary.String())
	assert.Equal(t, "adversarial", KindAdversarial.String())
	assert.Equal(t, "unknown", Kind(9).String())
}
