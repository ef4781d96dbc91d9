package behavior

import "github.com/lao-tseu-is-alive/go-flock3d/pkg/geometry"

// Settings controls the steering constants for one simulation step.
// Passing it into the steering functions allows rules to change at runtime.
type Settings struct {
	MaxSpeed float64
	MaxForce float64

	PerceptionRadius float64 // How far can they see?
	SeparationRadius float64 // Personal space radius

	SeparationWeight float64
	AlignmentWeight  float64
	CohesionWeight   float64

	// Bounds is the world extent; the world box spans [0, Bounds] on each axis.
	Bounds     geometry.Vector3D
	EdgeMargin float64

	AvoidDistance float64 // obstacle surface distance that triggers avoidance
	AvoidWeight   float64

	FleeRadius float64 // predator distance that triggers repulsion
	FleeWeight float64

	// PredatorForceFactor multiplies MaxForce for adversarial pursuit.
	PredatorForceFactor float64
}

// Obstacle is a sphere agents steer around.
type Obstacle struct {
	Position geometry.Vector3D `json:"position"`
	Radius   float64           `json:"radius"`
}

// SurfaceDistance returns the distance from p to the obstacle surface;
// negative when p is inside.
func (o Obstacle) SurfaceDistance(p geometry.Vector3D) float64 {
	return p.DistanceTo(o.Position) - o.Radius
}
