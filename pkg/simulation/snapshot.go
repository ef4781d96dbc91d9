package simulation

import (
	"github.com/lao-tseu-is-alive/go-flock3d/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-flock3d/pkg/geometry"
)

// Transform is what a renderer needs to draw one agent.
type Transform struct {
	ID       int               `json:"id"`
	Kind     behavior.Kind     `json:"kind"`
	Hero     bool              `json:"hero,omitempty"`
	Position geometry.Vector3D `json:"position"`
	Forward  geometry.Vector3D `json:"forward"`
	Velocity geometry.Vector3D `json:"velocity"`
}

// Snapshot is a copy of the world state after a step. It shares no memory
// with the World, so it can be handed to another goroutine.
type Snapshot struct {
	RunID     string              `json:"runId"`
	Step      uint64              `json:"step"`
	Bounds    Bounds              `json:"bounds"`
	Agents    []Transform         `json:"agents"`
	Obstacles []behavior.Obstacle `json:"obstacles,omitempty"`
	// Repairs counts agents respawned after reaching a non-finite state since the last reset.
	Repairs int `json:"repairs"`
}

// Counts returns the number of ordinary and adversarial agents.
func (s *Snapshot) Counts() (ordinary, adversarial int) {
	for _, t := range s.Agents {
		if t.Kind == behavior.KindAdversarial {
			adversarial++
		} else {
			ordinary++
		}
	}
	return ordinary, adversarial
}

// Hero returns the transform of the hero agent, if any.
func (s *Snapshot) Hero() (Transform, bool) {
	for _, t := range s.Agents {
		if t.Hero {
			return t, true
		}
	}
	return Transform{}, false
}

// Polarization is the length of the mean heading of ordinary agents:
// 1 when they all fly the same way, near 0 when headings are random.
func (s *Snapshot) Polarization() float64 {
	var sum geometry.Vector3D
	n := 0
	for _, t := range s.Agents {
		if t.Kind != behavior.KindOrdinary {
			continue
		}
		sum = sum.Add(t.Forward)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum.Mul(1 / float64(n)).Len()
}
