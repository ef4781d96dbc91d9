package simulation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func spawnWorld(t *testing.T, cfg *Config) (context.Context, *actor.PID, <-chan *Snapshot) {
	t.Helper()
	ctx := context.Background()

	system, err := actor.NewActorSystem("FlockTest", actor.WithLogger(log.DiscardLogger))
	require.NoError(t, err)
	require.NoError(t, system.Start(ctx))
	t.Cleanup(func() {
		_ = system.Stop(ctx)
	})

	snapshots := make(chan *Snapshot, 16)
	pid, err := system.Spawn(ctx, "world", NewWorldActor(snapshots, cfg))
	require.NoError(t, err)
	return ctx, pid, snapshots
}

func nextSnapshot(t *testing.T, ch <-chan *Snapshot) *Snapshot {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("no snapshot received")
		return nil
	}
}

func tick() *durationpb.Duration {
	return durationpb.New(16 * time.Millisecond)
}

func TestWorldActor_TickPublishesSnapshot(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AgentCount = 30
	ctx, pid, snapshots := spawnWorld(t, cfg)

	require.NoError(t, actor.Tell(ctx, pid, tick()))
	first := nextSnapshot(t, snapshots)
	assert.Equal(t, uint64(1), first.Step)
	assert.Len(t, first.Agents, 30)

	require.NoError(t, actor.Tell(ctx, pid, tick()))
	second := nextSnapshot(t, snapshots)
	assert.Equal(t, uint64(2), second.Step)
	assert.Equal(t, first.RunID, second.RunID)
}

func TestWorldActor_Reset(t *testing.T) {
	ctx, pid, snapshots := spawnWorld(t, DefaultConfig())

	require.NoError(t, actor.Tell(ctx, pid, tick()))
	before := nextSnapshot(t, snapshots)

	require.NoError(t, actor.Tell(ctx, pid, wrapperspb.Int32(40)))
	after := nextSnapshot(t, snapshots)

	assert.NotEqual(t, before.RunID, after.RunID)
	assert.Equal(t, uint64(0), after.Step)
	assert.Len(t, after.Agents, 40)
}

func TestWorldActor_ResetRejectsOversizedCount(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AgentCount = 25
	ctx, pid, snapshots := spawnWorld(t, cfg)

	require.NoError(t, actor.Tell(ctx, pid, wrapperspb.Int32(MaxAgents+1)))
	snap := nextSnapshot(t, snapshots)
	assert.Len(t, snap.Agents, 25, "the configured count is kept")
}

func TestWorldActor_ConfigUpdate(t *testing.T) {
	ctx, pid, snapshots := spawnWorld(t, DefaultConfig())

	update, err := structpb.NewStruct(map[string]any{
		"predatorEnabled": true,
		"predatorCount":   2,
	})
	require.NoError(t, err)
	require.NoError(t, actor.Tell(ctx, pid, update))

	// an invalid update is ignored
	bad, err := structpb.NewStruct(map[string]any{"gridResolution": 0})
	require.NoError(t, err)
	require.NoError(t, actor.Tell(ctx, pid, bad))

	require.NoError(t, actor.Tell(ctx, pid, tick()))
	snap := nextSnapshot(t, snapshots)
	ordinary, adversarial := snap.Counts()
	assert.Equal(t, 100, ordinary)
	assert.Equal(t, 2, adversarial)
}

func TestWorldActor_Pause(t *testing.T) {
	ctx, pid, snapshots := spawnWorld(t, DefaultConfig())

	require.NoError(t, actor.Tell(ctx, pid, tick()))
	assert.Equal(t, uint64(1), nextSnapshot(t, snapshots).Step)

	require.NoError(t, actor.Tell(ctx, pid, wrapperspb.Bool(true)))
	require.NoError(t, actor.Tell(ctx, pid, tick()))
	assert.Equal(t, uint64(1), nextSnapshot(t, snapshots).Step, "paused world does not step")

	require.NoError(t, actor.Tell(ctx, pid, wrapperspb.Bool(false)))
	require.NoError(t, actor.Tell(ctx, pid, tick()))
	assert.Equal(t, uint64(2), nextSnapshot(t, snapshots).Step)
}
