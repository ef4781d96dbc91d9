package simulation

import (
	"math"

	"github.com/lao-tseu-is-alive/go-flock3d/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-flock3d/pkg/geometry"
)

// Grid is a uniform N×N×N spatial index over the world box [0, bounds].
// It is rebuilt from scratch every step: Clear, then Insert every agent.
//
// Neighbor queries only look at the 3×3×3 block of cells around an agent,
// so they are exact only when every cell edge is at least the query radius.
// See Covers.
type Grid struct {
	resolution int
	bounds     geometry.Vector3D
	cellSize   geometry.Vector3D

	// cells is a flat slice: index = (x*N + y)*N + z
	cells [][]*behavior.Agent
	// occupied lists the cells filled since the last Clear
	occupied []int
}

// NewGrid creates a grid of resolution³ cells covering bounds.
// A resolution below 1 is treated as 1.
func NewGrid(bounds geometry.Vector3D, resolution int) *Grid {
	if resolution < 1 {
		resolution = 1
	}
	n := float64(resolution)
	return &Grid{
		resolution: resolution,
		bounds:     bounds,
		cellSize:   geometry.Vector3D{X: bounds.X / n, Y: bounds.Y / n, Z: bounds.Z / n},
		cells:      make([][]*behavior.Agent, resolution*resolution*resolution),
	}
}

// Resolution returns N, the number of cells along each axis.
func (g *Grid) Resolution() int {
	return g.resolution
}

// CellSize returns the edge lengths of one cell.
func (g *Grid) CellSize() geometry.Vector3D {
	return g.cellSize
}

// Covers reports whether a neighbor query of the given radius is exact,
// i.e. whether the smallest cell edge is at least radius.
func (g *Grid) Covers(radius float64) bool {
	return math.Min(g.cellSize.X, math.Min(g.cellSize.Y, g.cellSize.Z)) >= radius
}

// Clear empties every cell. Slices keep their capacity so a steady-state
// rebuild does not allocate.
func (g *Grid) Clear() {
	for _, idx := range g.occupied {
		clear(g.cells[idx])
		g.cells[idx] = g.cells[idx][:0]
	}
	g.occupied = g.occupied[:0]
}

// CellOf maps a position to its cell, clamping positions outside the world
// into the nearest boundary cell.
func (g *Grid) CellOf(p geometry.Vector3D) behavior.CellIndex {
	return behavior.CellIndex{
		X: clampCell(p.X, g.cellSize.X, g.resolution),
		Y: clampCell(p.Y, g.cellSize.Y, g.resolution),
		Z: clampCell(p.Z, g.cellSize.Z, g.resolution),
	}
}

func clampCell(pos, size float64, n int) int {
	f := math.Floor(pos / size)
	switch {
	case math.IsNaN(f) || f < 0:
		return 0
	case f >= float64(n):
		return n - 1
	default:
		return int(f)
	}
}

// Insert stores the agent's cell on the agent and adds it to that cell.
func (g *Grid) Insert(a *behavior.Agent) {
	a.Cell = g.CellOf(a.Position)
	idx := g.index(a.Cell.X, a.Cell.Y, a.Cell.Z)
	if len(g.cells[idx]) == 0 {
		g.occupied = append(g.occupied, idx)
	}
	g.cells[idx] = append(g.cells[idx], a)
}

// QueryNeighbors appends to dst every agent other than a that lies in the
// 3×3×3 block around a.Cell and strictly closer than radius.
// Pass dst[:0] of a reused slice to avoid allocations. Order is unspecified.
func (g *Grid) QueryNeighbors(a *behavior.Agent, radius float64, dst []*behavior.Agent) []*behavior.Agent {
	radiusSq := radius * radius
	n := g.resolution

	for x := a.Cell.X - 1; x <= a.Cell.X+1; x++ {
		if x < 0 || x >= n {
			continue
		}
		for y := a.Cell.Y - 1; y <= a.Cell.Y+1; y++ {
			if y < 0 || y >= n {
				continue
			}
			for z := a.Cell.Z - 1; z <= a.Cell.Z+1; z++ {
				if z < 0 || z >= n {
					continue
				}
				for _, other := range g.cells[g.index(x, y, z)] {
					if other == a {
						continue
					}
					if a.DistanceSquaredTo(other) < radiusSq {
						dst = append(dst, other)
					}
				}
			}
		}
	}
	return dst
}

// AgentsIn returns the agents stored in one cell. The slice is owned by the
// grid and only valid until the next Clear.
func (g *Grid) AgentsIn(c behavior.CellIndex) []*behavior.Agent {
	n := g.resolution
	if c.X < 0 || c.X >= n || c.Y < 0 || c.Y >= n || c.Z < 0 || c.Z >= n {
		return nil
	}
	return g.cells[g.index(c.X, c.Y, c.Z)]
}

// Occupancy returns the number of non-empty cells.
func (g *Grid) Occupancy() int {
	return len(g.occupied)
}

func (g *Grid) index(x, y, z int) int {
	return (x*g.resolution+y)*g.resolution + z
}
