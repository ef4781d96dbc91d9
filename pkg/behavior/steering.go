package behavior

import (
	"github.com/lao-tseu-is-alive/go-flock3d/pkg/geometry"
)

// MinDistance floors every distance used as a divisor, so overlapping agents
// produce a large but finite push instead of an infinite one.
const MinDistance = 0.1

// steerTowards implements Reynolds steering: desired velocity at full speed
// along dir, minus the current velocity, limited to maxForce.
func steerTowards(a *Agent, dir geometry.Vector3D, maxSpeed, maxForce float64) geometry.Vector3D {
	desired := dir.Normalize().Mul(maxSpeed)
	return desired.Sub(a.Velocity).ClampLength(maxForce)
}

// Separate steers the agent away from neighbors closer than SeparationRadius.
// Each contribution is the unit vector away from the neighbor divided by the
// distance, so closer neighbors push harder.
func Separate(a *Agent, neighbors []*Agent, s Settings) geometry.Vector3D {
	var sum geometry.Vector3D
	count := 0

	for _, other := range neighbors {
		d := a.DistanceTo(other)
		if d >= s.SeparationRadius {
			continue
		}
		away := a.Position.Sub(other.Position).Normalize()
		sum = sum.Add(away.Mul(1 / max(d, MinDistance)))
		count++
	}

	if count == 0 {
		return geometry.Zero
	}
	avg := sum.Mul(1 / float64(count))
	if avg.Normalize() == geometry.Zero {
		// neighbors exactly on top of us cancel out, nothing to steer towards
		return geometry.Zero
	}
	return steerTowards(a, avg, s.MaxSpeed, s.MaxForce)
}

// Align steers the agent towards the average heading of its neighbors.
func Align(a *Agent, neighbors []*Agent, s Settings) geometry.Vector3D {
	if len(neighbors) == 0 {
		return geometry.Zero
	}
	var sum geometry.Vector3D
	for _, other := range neighbors {
		sum = sum.Add(other.Velocity)
	}
	avg := sum.Mul(1 / float64(len(neighbors)))
	return steerTowards(a, avg, s.MaxSpeed, s.MaxForce)
}

// Cohere steers the agent towards the centroid of its neighbors.
func Cohere(a *Agent, neighbors []*Agent, s Settings) geometry.Vector3D {
	if len(neighbors) == 0 {
		return geometry.Zero
	}
	var sum geometry.Vector3D
	for _, other := range neighbors {
		sum = sum.Add(other.Position)
	}
	return Seek(a, sum.Mul(1/float64(len(neighbors))), s)
}

// Seek steers the agent towards target at full speed.
func Seek(a *Agent, target geometry.Vector3D, s Settings) geometry.Vector3D {
	return steerTowards(a, target.Sub(a.Position), s.MaxSpeed, s.MaxForce)
}

// Contain pushes the agent back inside the world box. Each axis is handled
// on its own: within EdgeMargin of the lower bound the push is +MaxSpeed,
// within EdgeMargin of the upper bound it is -MaxSpeed, otherwise zero.
// The result is not normalized as a whole.
func Contain(a *Agent, s Settings) geometry.Vector3D {
	return geometry.Vector3D{
		X: containAxis(a.Position.X, s.Bounds.X, s.EdgeMargin, s.MaxSpeed),
		Y: containAxis(a.Position.Y, s.Bounds.Y, s.EdgeMargin, s.MaxSpeed),
		Z: containAxis(a.Position.Z, s.Bounds.Z, s.EdgeMargin, s.MaxSpeed),
	}
}

func containAxis(pos, upper, margin, speed float64) float64 {
	switch {
	case pos < margin:
		return speed
	case pos > upper-margin:
		return -speed
	default:
		return 0
	}
}

// AvoidObstacles pushes the agent away from every obstacle whose surface is
// closer than AvoidDistance. Contributions grow as the surface gets closer
// and the sum is limited to MaxSpeed, the same bound containment uses.
func AvoidObstacles(a *Agent, obstacles []Obstacle, s Settings) geometry.Vector3D {
	var sum geometry.Vector3D
	for _, o := range obstacles {
		d := o.SurfaceDistance(a.Position)
		if d >= s.AvoidDistance {
			continue
		}
		away := a.Position.Sub(o.Position).Normalize()
		if away == geometry.Zero {
			away = fallbackAway(a)
		}
		sum = sum.Add(away.Mul(s.MaxForce * s.AvoidDistance / max(d, MinDistance)))
	}
	return sum.ClampLength(s.MaxSpeed)
}

// Flee pushes an ordinary agent away from a predator closer than FleeRadius.
// The magnitude falls linearly from MaxForce at contact to zero at FleeRadius.
func Flee(a *Agent, predator *Agent, s Settings) geometry.Vector3D {
	if predator == nil || s.FleeRadius <= 0 {
		return geometry.Zero
	}
	d := a.DistanceTo(predator)
	if d >= s.FleeRadius {
		return geometry.Zero
	}
	away := a.Position.Sub(predator.Position).Normalize()
	if away == geometry.Zero {
		away = fallbackAway(a)
	}
	return away.Mul(s.MaxForce * (1 - d/s.FleeRadius))
}

// fallbackAway is the escape direction when the agent sits exactly on the
// thing it avoids: straight back along its heading, or +X without one.
func fallbackAway(a *Agent) geometry.Vector3D {
	if back := a.Forward.Normalize().Mul(-1); back != geometry.Zero {
		return back
	}
	return geometry.Vector3D{X: 1}
}

// NearestPrey returns the closest ordinary agent among candidates, or nil.
func NearestPrey(a *Agent, candidates []*Agent) *Agent {
	var closest *Agent
	minDistSq := 0.0
	for _, other := range candidates {
		if other == a || other.Kind != KindOrdinary {
			continue
		}
		distSq := a.DistanceSquaredTo(other)
		if closest == nil || distSq < minDistSq {
			minDistSq = distSq
			closest = other
		}
	}
	return closest
}
