package behavior

import "github.com/lao-tseu-is-alive/go-flock3d/pkg/geometry"

// Steer computes the net steering force of one step for the agent.
// neighbors are the agents within perception range (any kind), predators
// is the full adversarial set and obstacles the static obstacle field.
// It only reads its inputs, so it may run concurrently for different agents.
func Steer(a *Agent, neighbors, predators []*Agent, obstacles []Obstacle, s Settings) geometry.Vector3D {
	if a.Kind == KindAdversarial {
		return steerAdversarial(a, neighbors, obstacles, s)
	}
	return steerOrdinary(a, neighbors, predators, obstacles, s)
}

func steerOrdinary(a *Agent, neighbors, predators []*Agent, obstacles []Obstacle, s Settings) geometry.Vector3D {
	flockmates := neighbors
	for _, n := range neighbors {
		if n.Kind != KindOrdinary {
			flockmates = ordinaryOnly(neighbors)
			break
		}
	}

	force := Separate(a, flockmates, s).Mul(s.SeparationWeight)
	force = force.Add(Align(a, flockmates, s).Mul(s.AlignmentWeight))
	force = force.Add(Cohere(a, flockmates, s).Mul(s.CohesionWeight))
	force = force.Add(Contain(a, s))
	force = force.Add(AvoidObstacles(a, obstacles, s).Mul(s.AvoidWeight))
	for _, p := range predators {
		force = force.Add(Flee(a, p, s).Mul(s.FleeWeight))
	}
	return force
}

// steerAdversarial drops separation and alignment; cohesion targets the
// nearest ordinary agent instead of the centroid.
func steerAdversarial(a *Agent, neighbors []*Agent, obstacles []Obstacle, s Settings) geometry.Vector3D {
	var force geometry.Vector3D
	if prey := NearestPrey(a, neighbors); prey != nil {
		pursuit := s
		if s.PredatorForceFactor > 0 {
			pursuit.MaxForce = s.MaxForce * s.PredatorForceFactor
		}
		force = Seek(a, prey.Position, pursuit).Mul(s.CohesionWeight)
	}
	force = force.Add(Contain(a, s))
	force = force.Add(AvoidObstacles(a, obstacles, s).Mul(s.AvoidWeight))
	return force
}

func ordinaryOnly(agents []*Agent) []*Agent {
	out := make([]*Agent, 0, len(agents))
	for _, n := range agents {
		if n.Kind == KindOrdinary {
			out = append(out, n)
		}
	}
	return out
}
