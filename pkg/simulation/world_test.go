package simulation

import (
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/lao-tseu-is-alive/go-flock3d/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-flock3d/pkg/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const epsilon = 1e-9

func newTestWorld(t *testing.T, mutate func(cfg *Config)) *World {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Seed = 42
	if mutate != nil {
		mutate(cfg)
	}
	w, err := NewWorld(cfg)
	require.NoError(t, err)
	return w
}

func assertInside(t *testing.T, b Bounds, p geometry.Vector3D) {
	t.Helper()
	assert.True(t, p.X >= 0 && p.X <= b.Width, "x out of bounds: %v", p)
	assert.True(t, p.Y >= 0 && p.Y <= b.Height, "y out of bounds: %v", p)
	assert.True(t, p.Z >= 0 && p.Z <= b.Depth, "z out of bounds: %v", p)
}

func TestNewWorld(t *testing.T) {
	w := newTestWorld(t, nil)

	assert.Len(t, w.Agents(), 100)
	assert.Equal(t, uint64(0), w.StepCount())
	assert.NotEmpty(t, w.RunID())
	assert.True(t, w.Agents()[0].Hero)
	for i, a := range w.Agents() {
		assert.Equal(t, i, a.ID)
		assert.Equal(t, behavior.KindOrdinary, a.Kind)
		assert.Less(t, a.Velocity.Len(), w.Config().MaxSpeed)
		assertInside(t, w.Config().Bounds, a.Position)
	}
}

func TestNewWorld_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GridResolution = 0
	cfg.PerceptionRadius = -1

	_, err := NewWorld(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gridResolution")
	assert.Contains(t, err.Error(), "perceptionRadius")
}

func TestWorld_StepKeepsInvariants(t *testing.T) {
	w := newTestWorld(t, func(cfg *Config) {
		cfg.AgentCount = 200
		cfg.PredatorEnabled = true
		cfg.PredatorCount = 3
		cfg.Obstacles = []behavior.Obstacle{
			{Position: geometry.Vector3D{X: 50, Y: 50, Z: 50}, Radius: 8},
		}
	})
	maxSpeed := w.Config().MaxSpeed

	for step := 0; step < 300; step++ {
		w.Step()
		for _, a := range w.Agents() {
			require.True(t, a.IsFinite(), "agent %d not finite at step %d", a.ID, step)
			require.LessOrEqual(t, a.Velocity.Len(), maxSpeed+epsilon, "agent %d too fast at step %d", a.ID, step)
		}
	}
	assert.Equal(t, uint64(300), w.StepCount())
	assert.Zero(t, w.Repairs())
}

func TestWorld_SingleAgentMovesByItsVelocity(t *testing.T) {
	w := newTestWorld(t, func(cfg *Config) {
		cfg.AgentCount = 1
	})
	a := w.Agents()[0]
	a.Position = geometry.Vector3D{X: 50, Y: 50, Z: 50}
	a.Velocity = geometry.Vector3D{X: 0.3, Y: -0.4}

	w.Step()

	want := geometry.Vector3D{X: 50.3, Y: 49.6, Z: 50}
	assert.InDelta(t, want.X, a.Position.X, epsilon)
	assert.InDelta(t, want.Y, a.Position.Y, epsilon)
	assert.InDelta(t, want.Z, a.Position.Z, epsilon)
	assert.InDelta(t, 0.6, a.Forward.X, epsilon)
	assert.InDelta(t, -0.8, a.Forward.Y, epsilon)
	assert.Equal(t, w.Grid().CellOf(a.Position), a.Cell)
}

func TestWorld_HeadingFollowsAtLowMaxSpeed(t *testing.T) {
	w := newTestWorld(t, func(cfg *Config) {
		cfg.AgentCount = 1
		cfg.MaxSpeed = 0.08
	})
	a := w.Agents()[0]
	a.Position = geometry.Vector3D{X: 50, Y: 50, Z: 50}
	a.Velocity = geometry.Vector3D{X: 0.08}
	a.Forward = geometry.Vector3D{Y: 1}

	w.Step()

	assert.InDelta(t, 1.0, a.Forward.X, epsilon)
	assert.InDelta(t, 0.0, a.Forward.Y, epsilon)
}

func TestWorld_ResetRoundTrip(t *testing.T) {
	w := newTestWorld(t, nil)
	before := w.RunID()
	for i := 0; i < 10; i++ {
		w.Step()
	}

	w.Reset()

	assert.NotEqual(t, before, w.RunID())
	assert.Equal(t, uint64(0), w.StepCount())
	require.Len(t, w.Agents(), w.Config().AgentCount)
	for _, a := range w.Agents() {
		assertInside(t, w.Config().Bounds, a.Position)
	}
}

// A count change scheduled before Reset must not spawn a population that
// Reset throws away: the new agents use the same random draws either way.
func TestWorld_ResetWithPendingCountSpawnsOnce(t *testing.T) {
	plain := newTestWorld(t, nil)
	plain.Reset()

	grown := newTestWorld(t, nil)
	cfg := grown.Config()
	cfg.AgentCount = 150
	require.NoError(t, grown.Configure(cfg))
	grown.Reset()

	require.Len(t, grown.Agents(), 150)
	for i, a := range plain.Agents() {
		b := grown.Agents()[i]
		assert.Equal(t, a.ID, b.ID)
		assert.Equal(t, a.Position, b.Position, "agent %d", a.ID)
		assert.Equal(t, a.Velocity, b.Velocity, "agent %d", a.ID)
	}
}

func TestWorld_RepairsNonFiniteAgents(t *testing.T) {
	w := newTestWorld(t, nil)
	bad := w.Agents()[7]
	bad.Position.X = math.NaN()
	bad.Velocity.Z = math.Inf(1)

	w.Step()

	assert.True(t, bad.IsFinite())
	assert.Equal(t, 1, w.Repairs())
	assert.Equal(t, 1, w.Snapshot().Repairs)
	for _, a := range w.Agents() {
		assert.True(t, a.IsFinite())
	}
}

func TestWorld_ConfigureAppliesAtNextStep(t *testing.T) {
	w := newTestWorld(t, nil)

	cfg := w.Config()
	cfg.AgentCount = 150
	cfg.MaxSpeed = 0.5
	require.NoError(t, w.Configure(cfg))

	// nothing changes until the next step
	assert.Len(t, w.Agents(), 100)
	assert.Equal(t, 1.0, w.Config().MaxSpeed)

	w.Step()

	assert.Len(t, w.Agents(), 150)
	assert.Equal(t, 0.5, w.Config().MaxSpeed)
	for _, a := range w.Agents() {
		assert.LessOrEqual(t, a.Velocity.Len(), 0.5+epsilon)
	}

	cfg = w.Config()
	cfg.AgentCount = 20
	require.NoError(t, w.Configure(cfg))
	w.Step()
	require.Len(t, w.Agents(), 20)
	for i, a := range w.Agents() {
		assert.Equal(t, i, a.ID, "shrinking keeps the oldest agents")
	}
}

func TestWorld_ConfigureRejectsInvalidConfig(t *testing.T) {
	w := newTestWorld(t, nil)
	cfg := w.Config()
	cfg.MaxSpeed = 0
	assert.Error(t, w.Configure(cfg))

	w.Step()
	assert.Equal(t, 1.0, w.Config().MaxSpeed)
}

func TestWorld_ConfigureRebuildsGrid(t *testing.T) {
	w := newTestWorld(t, nil)
	cfg := w.Config()
	cfg.Bounds = Bounds{Width: 300, Height: 150, Depth: 150}
	cfg.GridResolution = 10
	require.NoError(t, w.Configure(cfg))

	w.Step()

	assert.Equal(t, 10, w.Grid().Resolution())
	assert.Equal(t, geometry.Vector3D{X: 30, Y: 15, Z: 15}, w.Grid().CellSize())
}

func TestWorld_Predators(t *testing.T) {
	w := newTestWorld(t, func(cfg *Config) {
		cfg.AgentCount = 50
		cfg.PredatorEnabled = true
		cfg.PredatorCount = 2
	})

	snap := w.Snapshot()
	ordinary, adversarial := snap.Counts()
	assert.Equal(t, 50, ordinary)
	assert.Equal(t, 2, adversarial)

	cfg := w.Config()
	cfg.PredatorEnabled = false
	require.NoError(t, w.Configure(cfg))
	w.Step()

	_, adversarial = w.Snapshot().Counts()
	assert.Zero(t, adversarial)
	assert.Len(t, w.Agents(), 50)
}

// A worker pool must not change the outcome: the grid is built sequentially,
// so every agent sees its neighbors in the same order.
func TestWorld_ParallelMatchesSequential(t *testing.T) {
	build := func(workers int) *World {
		cfg := DefaultConfig()
		cfg.AgentCount = 300
		cfg.PredatorEnabled = true
		cfg.PredatorCount = 2
		cfg.Workers = workers
		w, err := NewWorld(cfg, WithRand(rand.New(rand.NewPCG(3, 5))))
		require.NoError(t, err)
		return w
	}
	seq, par := build(1), build(4)

	for i := 0; i < 50; i++ {
		seq.Step()
		par.Step()
	}

	require.Len(t, par.Agents(), len(seq.Agents()))
	for i, a := range seq.Agents() {
		b := par.Agents()[i]
		assert.Equal(t, a.Position, b.Position, "agent %d", a.ID)
		assert.Equal(t, a.Velocity, b.Velocity, "agent %d", a.ID)
	}
}

func TestWorld_SnapshotIsACopy(t *testing.T) {
	w := newTestWorld(t, nil)
	snap := w.Snapshot()
	hero, ok := snap.Hero()
	require.True(t, ok)
	assert.Equal(t, 0, hero.ID)

	pos := snap.Agents[0].Position
	w.Step()
	assert.Equal(t, pos, snap.Agents[0].Position)
	assert.Equal(t, uint64(0), snap.Step)
}

func TestSnapshot_Polarization(t *testing.T) {
	aligned := &Snapshot{Agents: []Transform{
		{Forward: geometry.Vector3D{X: 1}},
		{Forward: geometry.Vector3D{X: 1}},
		{Kind: behavior.KindAdversarial, Forward: geometry.Vector3D{X: -1}},
	}}
	assert.InDelta(t, 1.0, aligned.Polarization(), epsilon)

	opposed := &Snapshot{Agents: []Transform{
		{Forward: geometry.Vector3D{X: 1}},
		{Forward: geometry.Vector3D{X: -1}},
	}}
	assert.InDelta(t, 0.0, opposed.Polarization(), epsilon)

	assert.Zero(t, (&Snapshot{}).Polarization())
}

func BenchmarkWorld_Step(b *testing.B) {
	for _, workers := range []int{1, 4} {
		cfg := DefaultConfig()
		cfg.AgentCount = 1000
		cfg.Workers = workers
		w, err := NewWorld(cfg, WithRand(rand.New(rand.NewPCG(1, 1))))
		if err != nil {
			b.Fatal(err)
		}
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				w.Step()
			}
		})
	}
}
