package viewer

import (
	"cmp"
	"context"
	"fmt"
	"image/color"
	"math"
	"slices"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/lao-tseu-is-alive/go-flock3d/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-flock3d/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-flock3d/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-flock3d/pkg/ui"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

var (
	background    = color.RGBA{R: 10, G: 10, B: 30, A: 255}
	boxColor      = color.RGBA{R: 90, G: 90, B: 120, A: 255}
	boidColor     = color.RGBA{R: 100, G: 200, B: 255, A: 255}
	heroColor     = color.RGBA{R: 255, G: 220, B: 60, A: 255}
	predatorColor = color.RGBA{R: 255, G: 60, B: 60, A: 255}
	obstacleColor = color.RGBA{R: 120, G: 220, B: 120, A: 160}
)

type tuning struct {
	slider *ui.Slider
	key    string
}

type Game struct {
	ctx        context.Context
	logger     log.Logger
	worldPID   *actor.PID
	snapshotCh <-chan *simulation.Snapshot
	lastState  *simulation.Snapshot

	width, height int
	camera        geometry.Camera
	followHero    bool
	paused        bool

	// UI Controls
	panel       *ui.Panel
	tunings     []tuning
	agentCount  *ui.Slider
	predators   *ui.Checkbox
	follow      *ui.Checkbox
	resetButton *ui.Button

	// Timing instrumentation
	lastFrame time.Time
	updateAvg float64 // Rolling average in ms
	drawAvg   float64 // Rolling average in ms
}

// NewGame wires a viewer to an already spawned WorldActor. The actor must
// publish its snapshots on snapshotCh.
func NewGame(ctx context.Context, system actor.ActorSystem, worldPID *actor.PID, snapshotCh <-chan *simulation.Snapshot, cfg *simulation.Config, width, height int) *Game {
	bounds := cfg.Bounds.Vector()
	g := &Game{
		ctx:        ctx,
		logger:     system.Logger(),
		worldPID:   worldPID,
		snapshotCh: snapshotCh,
		lastState:  &simulation.Snapshot{Bounds: cfg.Bounds}, // Avoid nil pointer
		width:      width,
		height:     height,
		camera: geometry.Camera{
			Target:   bounds.Mul(0.5),
			Distance: 2 * math.Max(bounds.X, math.Max(bounds.Y, bounds.Z)),
			Pitch:    0.35,
			Focal:    float64(height),
			Near:     1,
		},
	}

	panel := ui.NewPanel(10, 10, 260, float64(height)-20, "Flock configuration")

	panel.AddSection("Rule weights")
	g.addTuning(panel, "Separation", "separationWeight", 0, 5, cfg.SeparationWeight)
	g.addTuning(panel, "Alignment", "alignmentWeight", 0, 5, cfg.AlignmentWeight)
	g.addTuning(panel, "Cohesion", "cohesionWeight", 0, 5, cfg.CohesionWeight)
	g.addTuning(panel, "Obstacle avoidance", "avoidWeight", 0, 5, cfg.AvoidWeight)
	g.addTuning(panel, "Flee", "fleeWeight", 0, 5, cfg.FleeWeight)

	panel.AddSection("Radii")
	g.addTuning(panel, "Separation radius", "separationRadius", 1, 30, cfg.SeparationRadius)
	g.addTuning(panel, "Perception radius", "perceptionRadius", 1, 50, cfg.PerceptionRadius)
	g.addTuning(panel, "Edge margin", "edgeMargin", 0, 30, cfg.EdgeMargin)
	g.addTuning(panel, "Flee radius", "fleeRadius", 0, 60, cfg.FleeRadius)

	panel.AddSection("Physics")
	g.addTuning(panel, "Max speed", "maxSpeed", 0.1, 5, cfg.MaxSpeed)
	g.addTuning(panel, "Max force", "maxForce", 0, 0.5, cfg.MaxForce)

	panel.AddSection("Population")
	g.agentCount = panel.AddIntSlider("Agents (on reset)", 1, 2000, cfg.AgentCount)
	g.predators = panel.AddCheckbox("Predators", cfg.PredatorEnabled)
	g.resetButton = panel.AddButton("Reset", g.reset)

	panel.AddSection("View")
	g.follow = panel.AddCheckbox("Follow hero", false)

	g.panel = panel
	return g
}

func (g *Game) addTuning(panel *ui.Panel, label, key string, min, max, value float64) {
	g.tunings = append(g.tunings, tuning{slider: panel.AddSlider(label, min, max, value), key: key})
}

func (g *Game) reset() {
	if err := actor.Tell(g.ctx, g.worldPID, wrapperspb.Int32(int32(g.agentCount.Value))); err != nil {
		g.logger.Warnf("reset failed: %v", err)
	}
}

func (g *Game) Update() error {
	start := time.Now()
	defer func() {
		// Rolling average (exponential moving average)
		g.updateAvg = g.updateAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	g.panel.Update()
	g.handleInput()

	// Retrieve Latest State (Non-blocking)
	select {
	case snap := <-g.snapshotCh:
		g.lastState = snap
	default:
		// Use previous state if new one isn't ready
	}

	if update := g.changedConfig(); update != nil {
		if err := actor.Tell(g.ctx, g.worldPID, update); err != nil {
			g.logger.Warnf("config update failed: %v", err)
		}
	}

	// Trigger Simulation Step
	now := time.Now()
	var dt time.Duration
	if !g.lastFrame.IsZero() {
		dt = now.Sub(g.lastFrame)
	}
	g.lastFrame = now
	if err := actor.Tell(g.ctx, g.worldPID, durationpb.New(dt)); err != nil {
		g.logger.Warnf("tick failed: %v", err)
	}

	if g.followHero {
		if hero, ok := g.lastState.Hero(); ok {
			g.camera.Target = g.camera.Target.Lerp(hero.Position, 0.1)
		}
	} else {
		g.camera.Target = g.camera.Target.Lerp(g.lastState.Bounds.Vector().Mul(0.5), 0.1)
	}
	return nil
}

// changedConfig collects the widgets modified this frame into a partial
// config update, or returns nil when nothing changed.
func (g *Game) changedConfig() *structpb.Struct {
	fields := map[string]any{}
	sliders := map[string]*ui.Slider{}
	for _, t := range g.tunings {
		sliders[t.key] = t.slider
		if t.slider.Changed() {
			fields[t.key] = t.slider.Value
		}
	}
	// separation never reaches beyond perception
	sep, per := sliders["separationRadius"], sliders["perceptionRadius"]
	if sep.Value > per.Value {
		sep.Value = per.Value
		fields["separationRadius"] = sep.Value
	}
	if g.predators.Changed() {
		fields["predatorEnabled"] = g.predators.Value
	}
	if g.follow.Changed() {
		g.followHero = g.follow.Value
	}
	// the count only applies on reset
	g.agentCount.Changed()
	g.resetButton.Changed()

	if len(fields) == 0 {
		return nil
	}
	update, err := structpb.NewStruct(fields)
	if err != nil {
		g.logger.Warnf("config update failed: %v", err)
		return nil
	}
	return update
}

func (g *Game) handleInput() {
	mx, my := ebiten.CursorPosition()
	overPanel := g.panel.Contains(mx, my)

	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
		if err := actor.Tell(g.ctx, g.worldPID, wrapperspb.Bool(g.paused)); err != nil {
			g.logger.Warnf("pause failed: %v", err)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.reset()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.panel.Hidden = !g.panel.Hidden
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF) {
		g.follow.Value = !g.follow.Value
		g.followHero = g.follow.Value
	}

	const orbitSpeed = 0.03
	if ebiten.IsKeyPressed(ebiten.KeyLeft) {
		g.camera.Orbit(-orbitSpeed, 0)
	}
	if ebiten.IsKeyPressed(ebiten.KeyRight) {
		g.camera.Orbit(orbitSpeed, 0)
	}
	if ebiten.IsKeyPressed(ebiten.KeyUp) {
		g.camera.Orbit(0, orbitSpeed)
	}
	if ebiten.IsKeyPressed(ebiten.KeyDown) {
		g.camera.Orbit(0, -orbitSpeed)
	}
	if !overPanel {
		if _, dy := ebiten.Wheel(); dy != 0 {
			g.camera.Zoom(math.Pow(0.9, dy), 5)
		}
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()
	defer func() {
		g.drawAvg = g.drawAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	screen.Fill(background)
	g.drawBox(screen)
	g.drawObstacles(screen)
	g.drawAgents(screen)

	g.panel.Draw(screen)
	g.drawStats(screen)
}

func (g *Game) center() (float64, float64) {
	return float64(g.width) / 2, float64(g.height) / 2
}

// drawBox draws the twelve edges of the world box.
func (g *Game) drawBox(screen *ebiten.Image) {
	b := g.lastState.Bounds.Vector()
	corner := func(i int) geometry.Vector3D {
		return geometry.Vector3D{
			X: b.X * float64(i&1),
			Y: b.Y * float64(i>>1&1),
			Z: b.Z * float64(i>>2&1),
		}
	}
	cx, cy := g.center()
	for i := 0; i < 8; i++ {
		for _, bit := range []int{1, 2, 4} {
			j := i | bit
			if j == i {
				continue
			}
			x1, y1, _, ok1 := g.camera.Project(corner(i), cx, cy)
			x2, y2, _, ok2 := g.camera.Project(corner(j), cx, cy)
			if ok1 && ok2 {
				vector.StrokeLine(screen, float32(x1), float32(y1), float32(x2), float32(y2), 1, boxColor, true)
			}
		}
	}
}

func (g *Game) drawObstacles(screen *ebiten.Image) {
	cx, cy := g.center()
	for _, o := range g.lastState.Obstacles {
		x, y, depth, ok := g.camera.Project(o.Position, cx, cy)
		if !ok {
			continue
		}
		r := o.Radius * g.camera.Focal / depth
		vector.StrokeCircle(screen, float32(x), float32(y), float32(r), 1.5, obstacleColor, true)
	}
}

// drawAgents paints agents back to front as short lines along their heading.
func (g *Game) drawAgents(screen *ebiten.Image) {
	type projected struct {
		x, y, tx, ty, depth float64
		t                   simulation.Transform
	}
	cx, cy := g.center()
	items := make([]projected, 0, len(g.lastState.Agents))
	for _, t := range g.lastState.Agents {
		x, y, depth, ok := g.camera.Project(t.Position, cx, cy)
		if !ok {
			continue
		}
		tx, ty, _, ok := g.camera.Project(t.Position.Add(t.Forward.Mul(2)), cx, cy)
		if !ok {
			tx, ty = x, y
		}
		items = append(items, projected{x: x, y: y, tx: tx, ty: ty, depth: depth, t: t})
	}
	slices.SortFunc(items, func(a, b projected) int {
		return cmp.Compare(b.depth, a.depth)
	})

	for _, p := range items {
		clr, size := boidColor, 1.5
		switch {
		case p.t.Kind == behavior.KindAdversarial:
			clr, size = predatorColor, 3
		case p.t.Hero:
			clr, size = heroColor, 3
		}
		vector.StrokeLine(screen, float32(p.x), float32(p.y), float32(p.tx), float32(p.ty), float32(size), clr, true)
		vector.FillCircle(screen, float32(p.x), float32(p.y), float32(size), clr, true)
	}
}

func (g *Game) drawStats(screen *ebiten.Image) {
	ordinary, adversarial := g.lastState.Counts()
	state := "running"
	if g.paused {
		state = "paused"
	}
	msg := fmt.Sprintf("FPS: %.2f\nTPS: %.2f\n\nUpdate: %.2fms\nDraw:   %.2fms\n\nStep: %d (%s)\nAgents: %d\nPredators: %d\nPolarization: %.2f\nRepairs: %d",
		ebiten.ActualFPS(),
		ebiten.ActualTPS(),
		g.updateAvg,
		g.drawAvg,
		g.lastState.Step, state,
		ordinary,
		adversarial,
		g.lastState.Polarization(),
		g.lastState.Repairs)
	// Print stats on the right side
	ebitenutil.DebugPrintAt(screen, msg, g.width-170, 10)
	ebitenutil.DebugPrintAt(screen, "arrows: orbit  wheel: zoom  space: pause  R: reset  F: follow  H: panel", 290, g.height-20)
}

func (g *Game) Layout(w, h int) (int, int) { return g.width, g.height }
