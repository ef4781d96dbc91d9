package behavior

import (
	"math"
	"math/rand/v2"

	"github.com/lao-tseu-is-alive/go-flock3d/pkg/geometry"
)

// OrientationThreshold is the fraction of maxSpeed under which Forward is
// left unchanged, so a nearly stopped agent keeps its previous heading.
const OrientationThreshold = 0.1

// Kind selects which steering rules an agent follows.
type Kind uint8

const (
	// KindOrdinary agents flock: separation, alignment, cohesion.
	KindOrdinary Kind = iota
	// KindAdversarial agents ignore the flock and chase the nearest ordinary agent.
	KindAdversarial
)

func (k Kind) String() string {
	switch k {
	case KindOrdinary:
		return "ordinary"
	case KindAdversarial:
		return "adversarial"
	default:
		return "unknown"
	}
}

// CellIndex identifies the spatial grid cell an agent occupied at the last
// grid insert. It is derived from Position and never authoritative.
type CellIndex struct {
	X, Y, Z int
}

// Agent represents a single boid.
// Boids is an artificial life program, developed by Craig Reynolds in 1986,
// which simulates the flocking behaviour of birds, and related group motion.
// https://en.wikipedia.org/wiki/Boids
// Position, Velocity and Forward are exported so the renderer can read them.
type Agent struct {
	ID   int
	Kind Kind
	// Hero marks the agent a host camera may follow.
	Hero bool

	Position geometry.Vector3D
	Velocity geometry.Vector3D
	Forward  geometry.Vector3D

	Cell CellIndex

	acceleration geometry.Vector3D
}

// New creates an agent with a random position inside bounds and a random
// velocity no faster than maxSpeed.
func New(id int, kind Kind, bounds geometry.Vector3D, maxSpeed float64, rng *rand.Rand) *Agent {
	a := &Agent{ID: id, Kind: kind}
	a.Respawn(rng, bounds, maxSpeed)
	return a
}

// Respawn puts the agent back into a valid random state: a position inside
// bounds, a random heading and a speed in [0, maxSpeed). The accumulator is cleared.
func (a *Agent) Respawn(rng *rand.Rand, bounds geometry.Vector3D, maxSpeed float64) {
	a.Position = geometry.Vector3D{
		X: rng.Float64() * bounds.X,
		Y: rng.Float64() * bounds.Y,
		Z: rng.Float64() * bounds.Z,
	}
	dir := randomDirection(rng)
	a.Velocity = dir.Mul(maxSpeed * rng.Float64())
	a.Forward = dir
	a.acceleration = geometry.Zero
}

// randomDirection returns a unit vector uniformly distributed on the sphere.
func randomDirection(rng *rand.Rand) geometry.Vector3D {
	z := rng.Float64()*2 - 1
	theta := rng.Float64() * 2 * math.Pi
	r := math.Sqrt(1 - z*z)
	return geometry.Vector3D{X: r * math.Cos(theta), Y: r * math.Sin(theta), Z: z}
}

// ApplyForce adds a steering force to the acceleration accumulator.
func (a *Agent) ApplyForce(force geometry.Vector3D) {
	a.acceleration = a.acceleration.Add(force)
}

// Acceleration returns the forces accumulated since the last integration.
func (a *Agent) Acceleration() geometry.Vector3D {
	return a.acceleration
}

// Integrate applies the accumulated forces: velocity is clamped to maxSpeed,
// position advances by the velocity and the accumulator is reset.
// A non-finite accumulator is dropped so a finite agent stays finite.
func (a *Agent) Integrate(maxSpeed float64) {
	if !a.acceleration.IsFinite() {
		a.acceleration = geometry.Zero
	}
	a.Velocity = a.Velocity.Add(a.acceleration).ClampLength(maxSpeed)
	a.Position = a.Position.Add(a.Velocity)
	a.acceleration = geometry.Zero

	if a.Velocity.Len() > OrientationThreshold*maxSpeed {
		a.Forward = a.Velocity.Normalize()
	}
}

// IsFinite reports whether position and velocity hold only finite values.
func (a *Agent) IsFinite() bool {
	return a.Position.IsFinite() && a.Velocity.IsFinite()
}

// DistanceTo gives the cartesian distance from this agent to the other.
func (a *Agent) DistanceTo(other *Agent) float64 {
	return a.Position.DistanceTo(other.Position)
}

// DistanceSquaredTo gives the squared distance from this agent to the other.
func (a *Agent) DistanceSquaredTo(other *Agent) float64 {
	return a.Position.DistanceSquaredTo(other.Position)
}
