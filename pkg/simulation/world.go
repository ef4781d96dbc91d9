package simulation

import (
	"math/rand/v2"
	"slices"

	"github.com/google/uuid"
	"github.com/lao-tseu-is-alive/go-flock3d/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-flock3d/pkg/geometry"
	"github.com/tochemey/goakt/v3/log"
	"golang.org/x/sync/errgroup"
)

// World owns the whole simulation state: configuration, agents, spatial grid
// and obstacles. It is not safe for concurrent use; WorldActor serializes
// access to it.
type World struct {
	cfg      *Config
	pending  *Config
	settings behavior.Settings

	flock     []*behavior.Agent
	predators []*behavior.Agent
	// agents is flock followed by predators, the iteration order of a step
	agents []*behavior.Agent
	nextID int

	grid *Grid
	// scratch holds one neighbor buffer per force worker
	scratch [][]*behavior.Agent

	rng     *rand.Rand
	logger  log.Logger
	runID   uuid.UUID
	step    uint64
	repairs int
}

// Option configures a World.
type Option func(*World)

// WithLogger sets the logger, log.DiscardLogger by default.
func WithLogger(logger log.Logger) Option {
	return func(w *World) {
		w.logger = logger
	}
}

// WithRand sets the random source used for spawning, overriding Config.Seed.
func WithRand(rng *rand.Rand) Option {
	return func(w *World) {
		w.rng = rng
	}
}

// NewWorld creates a world and populates it from cfg.
// cfg is copied; later changes go through Configure.
func NewWorld(cfg *Config, opts ...Option) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	w := &World{
		cfg:    cfg.Clone(),
		logger: log.DiscardLogger,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = rand.Uint64()
		}
		w.rng = rand.New(rand.NewPCG(seed, seed))
	}
	w.configureGrid()
	w.settings = w.cfg.Settings()
	w.Reset()
	return w, nil
}

// Configure schedules a new configuration. It takes effect at the start of
// the next Step or Reset, never in the middle of a step.
func (w *World) Configure(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	w.pending = cfg.Clone()
	return nil
}

// Reset removes every agent and spawns a fresh population matching the
// configuration: AgentCount ordinary agents plus the active predators.
// The run gets a new ID and the step and repair counters restart at zero.
func (w *World) Reset() {
	w.adoptPending()

	w.flock = nil
	w.predators = nil
	w.nextID = 0
	w.resize()

	w.runID = uuid.New()
	w.step = 0
	w.repairs = 0
	w.logger.Infof("world %s reset with %d agents and %d predators", w.runID, len(w.flock), len(w.predators))
}

// Step advances the simulation by one tick:
// apply pending config, rebuild the grid, compute every force, then integrate.
// Forces are computed from positions frozen at the start of the step.
func (w *World) Step() {
	w.applyPending()
	w.rebuildGrid()
	w.computeForces()

	for _, a := range w.agents {
		a.Integrate(w.settings.MaxSpeed)
		a.Cell = w.grid.CellOf(a.Position)
	}
	w.step++
}

// Agents returns the live agents, ordinary ones first. The slice and the
// agents belong to the world and change on the next Step.
func (w *World) Agents() []*behavior.Agent {
	return w.agents
}

// Config returns a copy of the configuration currently in effect.
func (w *World) Config() *Config {
	return w.cfg.Clone()
}

// StepCount returns the number of steps since the last reset.
func (w *World) StepCount() uint64 {
	return w.step
}

// RunID identifies the population created by the last reset.
func (w *World) RunID() string {
	return w.runID.String()
}

// Repairs returns the number of agents respawned since the last reset.
func (w *World) Repairs() int {
	return w.repairs
}

// Grid exposes the spatial index as rebuilt by the last step.
func (w *World) Grid() *Grid {
	return w.grid
}

// Snapshot copies the current transforms for a renderer.
func (w *World) Snapshot() *Snapshot {
	s := &Snapshot{
		RunID:     w.runID.String(),
		Step:      w.step,
		Bounds:    w.cfg.Bounds,
		Agents:    make([]Transform, len(w.agents)),
		Obstacles: slices.Clone(w.cfg.Obstacles),
		Repairs:   w.repairs,
	}
	for i, a := range w.agents {
		s.Agents[i] = Transform{
			ID:       a.ID,
			Kind:     a.Kind,
			Hero:     a.Hero,
			Position: a.Position,
			Forward:  a.Forward,
			Velocity: a.Velocity,
		}
	}
	return s
}

// applyPending adopts a scheduled config and resizes the population to it.
func (w *World) applyPending() {
	if !w.adoptPending() {
		return
	}
	if len(w.flock) != w.cfg.AgentCount || len(w.predators) != w.cfg.ActivePredators() {
		w.resize()
	}
}

// adoptPending makes a scheduled config current and rebuilds the grid when
// its shape changed. It reports whether there was anything to adopt.
func (w *World) adoptPending() bool {
	if w.pending == nil {
		return false
	}
	old := w.cfg
	w.cfg, w.pending = w.pending, nil
	w.settings = w.cfg.Settings()

	if old.Bounds != w.cfg.Bounds || old.GridResolution != w.cfg.GridResolution ||
		old.PerceptionRadius != w.cfg.PerceptionRadius {
		w.configureGrid()
	}
	return true
}

func (w *World) configureGrid() {
	w.grid = NewGrid(w.cfg.Bounds.Vector(), w.cfg.GridResolution)
	if !w.grid.Covers(w.cfg.PerceptionRadius) {
		w.logger.Warnf("grid cell size %v is smaller than the perception radius %v, some neighbors will be missed",
			w.grid.CellSize(), w.cfg.PerceptionRadius)
	}
}

// resize grows or shrinks the flock and the predator set to the configured
// counts. Extra agents are dropped from the tail, new ones spawn at random.
func (w *World) resize() {
	w.flock = w.resizeSet(w.flock, w.cfg.AgentCount, behavior.KindOrdinary)
	w.predators = w.resizeSet(w.predators, w.cfg.ActivePredators(), behavior.KindAdversarial)
	if len(w.flock) > 0 {
		w.flock[0].Hero = true
	}

	w.agents = make([]*behavior.Agent, 0, len(w.flock)+len(w.predators))
	w.agents = append(w.agents, w.flock...)
	w.agents = append(w.agents, w.predators...)
}

func (w *World) resizeSet(set []*behavior.Agent, n int, kind behavior.Kind) []*behavior.Agent {
	if len(set) >= n {
		clear(set[n:])
		return set[:n]
	}
	bounds := w.cfg.Bounds.Vector()
	for len(set) < n {
		a := behavior.New(w.nextID, kind, bounds, w.cfg.MaxSpeed, w.rng)
		a.Cell = w.grid.CellOf(a.Position)
		set = append(set, a)
		w.nextID++
	}
	return set
}

// rebuildGrid clears the grid and inserts every agent, respawning the ones
// whose state is no longer finite.
func (w *World) rebuildGrid() {
	w.grid.Clear()
	bounds := w.cfg.Bounds.Vector()
	for _, a := range w.agents {
		if !a.IsFinite() {
			w.logger.Warnf("agent %d reached a non-finite state (position %v, velocity %v), respawning",
				a.ID, a.Position, a.Velocity)
			a.Respawn(w.rng, bounds, w.cfg.MaxSpeed)
			w.repairs++
		}
		w.grid.Insert(a)
	}
}

// computeForces runs the force phase. Each agent only reads frozen
// positions and writes its own accumulator, so chunks can run in parallel.
func (w *World) computeForces() {
	workers := max(w.cfg.Workers, 1)
	if workers > len(w.agents) {
		workers = max(len(w.agents), 1)
	}
	for len(w.scratch) < workers {
		w.scratch = append(w.scratch, make([]*behavior.Agent, 0, 32))
	}

	if workers == 1 {
		w.steerRange(0, len(w.agents), 0)
		return
	}

	var g errgroup.Group
	g.SetLimit(workers)
	chunk := (len(w.agents) + workers - 1) / workers
	for i := 0; i < workers; i++ {
		start, end := i*chunk, min((i+1)*chunk, len(w.agents))
		if start >= end {
			break
		}
		g.Go(func() error {
			w.steerRange(start, end, i)
			return nil
		})
	}
	// steerRange cannot fail
	_ = g.Wait()
}

func (w *World) steerRange(start, end, worker int) {
	neighbors := w.scratch[worker]
	for _, a := range w.agents[start:end] {
		neighbors = w.grid.QueryNeighbors(a, w.settings.PerceptionRadius, neighbors[:0])
		a.ApplyForce(behavior.Steer(a, neighbors, w.predators, w.cfg.Obstacles, w.settings))
	}
	w.scratch[worker] = neighbors
}

// Bounds returns the world box as a vector.
func (w *World) Bounds() geometry.Vector3D {
	return w.cfg.Bounds.Vector()
}
