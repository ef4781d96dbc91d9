package simulation

import (
	"time"

	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// WorldActor hosts a World inside the actor system. The mailbox processes one
// message at a time, so the World is never touched concurrently.
//
// Messages:
//   - *durationpb.Duration: tick, advance one step (frame delta) and publish a snapshot
//   - *structpb.Struct: partial config update keyed by JSON field names
//   - *wrapperspb.Int32Value: reset, with a new agent count when > 0
//   - *wrapperspb.BoolValue: pause (true) or resume (false)
type WorldActor struct {
	cfg   *Config
	world *World
	// Communication with UI
	snapshotCh chan<- *Snapshot

	// --- Benchmark Stats ---
	stepCount    int
	droppedCount int
	frameTime    time.Duration
	lastLogTime  time.Time
}

var _ actor.Actor = (*WorldActor)(nil)

// NewWorldActor creates the world logic unit. Snapshots are pushed to
// snapshotCh without blocking; a nil channel disables publishing.
func NewWorldActor(snapshotCh chan<- *Snapshot, cfg *Config) *WorldActor {
	return &WorldActor{
		cfg:        cfg.Clone(),
		snapshotCh: snapshotCh,
	}
}

func (w *WorldActor) PreStart(ctx *actor.Context) error {
	world, err := NewWorld(w.cfg, WithLogger(ctx.ActorSystem().Logger()))
	if err != nil {
		return err
	}
	w.world = world
	w.lastLogTime = time.Now()
	return nil
}

func (w *WorldActor) Receive(ctx *actor.ReceiveContext) {
	switch ctx.Message().(type) {
	case *goaktpb.PostStart:
		ctx.Logger().Infof("World %s started with %d agents", w.world.RunID(), len(w.world.Agents()))
		ctx.Become(w.running)
	default:
		ctx.Unhandled()
	}
}

// running steps the world on every tick.
func (w *WorldActor) running(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *durationpb.Duration:
		w.world.Step()
		w.stepCount++
		w.frameTime += msg.AsDuration()
		w.pushSnapshot()
		w.logBenchmarks(ctx)
	case *wrapperspb.BoolValue:
		if msg.GetValue() {
			ctx.Logger().Infof("World %s paused at step %d", w.world.RunID(), w.world.StepCount())
			ctx.Become(w.paused)
		}
	default:
		w.handleCommon(ctx)
	}
}

// paused keeps answering ticks with the current state without stepping.
func (w *WorldActor) paused(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *durationpb.Duration:
		w.pushSnapshot()
	case *wrapperspb.BoolValue:
		if !msg.GetValue() {
			ctx.Logger().Infof("World %s resumed", w.world.RunID())
			w.lastLogTime = time.Now()
			ctx.Become(w.running)
		}
	default:
		w.handleCommon(ctx)
	}
}

// handleCommon processes the messages accepted whether running or paused.
func (w *WorldActor) handleCommon(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *structpb.Struct:
		cfg, err := w.world.Config().Merge(msg)
		if err != nil {
			ctx.Logger().Warnf("Ignoring config update: %v", err)
			return
		}
		if err := w.world.Configure(cfg); err != nil {
			ctx.Logger().Warnf("Ignoring config update: %v", err)
			return
		}
		ctx.Logger().Debugf("Config update scheduled: %v", msg.AsMap())
	case *wrapperspb.Int32Value:
		if n := int(msg.GetValue()); n > 0 {
			cfg := w.world.Config()
			cfg.AgentCount = n
			if err := w.world.Configure(cfg); err != nil {
				ctx.Logger().Warnf("Ignoring reset count %d: %v", n, err)
			}
		}
		w.world.Reset()
		w.pushSnapshot()
	default:
		ctx.Unhandled()
	}
}

func (w *WorldActor) pushSnapshot() {
	if w.snapshotCh == nil {
		return
	}
	select {
	case w.snapshotCh <- w.world.Snapshot():
	default:
		// UI busy, skip frame
		w.droppedCount++
	}
}

func (w *WorldActor) logBenchmarks(ctx *actor.ReceiveContext) {
	elapsed := time.Since(w.lastLogTime)
	if elapsed < time.Second {
		return
	}
	var avgFrame time.Duration
	if w.stepCount > 0 {
		avgFrame = w.frameTime / time.Duration(w.stepCount)
	}
	ctx.Logger().Infof("📊 STEP RATE: %.0f/sec (frame %v, dropped snapshots %d) | Agents: %d | Repairs: %d",
		float64(w.stepCount)/elapsed.Seconds(), avgFrame, w.droppedCount,
		len(w.world.Agents()), w.world.Repairs())
	w.stepCount = 0
	w.droppedCount = 0
	w.frameTime = 0
	w.lastLogTime = time.Now()
}

func (w *WorldActor) PostStop(ctx *actor.Context) error {
	if w.world == nil {
		return nil
	}
	ctx.ActorSystem().Logger().Infof("World %s is shutdown after %d steps", w.world.RunID(), w.world.StepCount())
	return nil
}
