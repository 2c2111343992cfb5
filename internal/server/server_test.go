package server_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"lobby-server/internal/config"
	"lobby-server/internal/game"
	"lobby-server/internal/server"
	"lobby-server/internal/stats"
	"lobby-server/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu    sync.Mutex
	snaps []stats.Snapshot
}

func (s *recordingSink) Publish(_ context.Context, snap stats.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps = append(s.snaps, snap)
	return nil
}

func (s *recordingSink) last() (stats.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.snaps) == 0 {
		return stats.Snapshot{}, false
	}
	return s.snaps[len(s.snaps)-1], true
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.Port = 0
	cfg.Tick.Interval = 5 * time.Millisecond
	cfg.Tick.HeartbeatInterval = 20 * time.Millisecond
	cfg.Tick.StatsInterval = 10 * time.Millisecond
	return cfg
}

func startServer(t *testing.T, cfg *config.Config, sink stats.Sink, log *logger.Logger) (*server.Server, context.CancelFunc, <-chan error) {
	t.Helper()

	srv := server.NewServer(cfg, game.NewRegistry(log), sink, log)
	require.NoError(t, srv.Initialize())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
		}
	})
	return srv, cancel, done
}

func TestServer_EchoAndStats(t *testing.T) {
	sink := &recordingSink{}
	srv, cancel, done := startServer(t, testConfig(), sink, logger.Nop())

	room := srv.Rooms().CreateRoom("Battle Room", 4)
	srv.Rooms().CreateRoom("Casual Game", 2)
	require.True(t, room.AddPlayer(game.NewPlayer(1, "Alice")))
	require.True(t, room.AddPlayer(game.NewPlayer(2, "Bob")))
	room.StartGame()
	require.True(t, room.IsStarted())

	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", srv.Multiplexer().Port()))
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	reply := make([]byte, 5)
	_, err = io.ReadFull(conn, reply)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(reply))

	require.Eventually(t, func() bool {
		snap, ok := sink.last()
		return ok && snap.Connections == 1
	}, 2*time.Second, 5*time.Millisecond)

	snap, _ := sink.last()
	assert.Equal(t, 2, snap.Rooms)
	assert.Equal(t, 1, snap.StartedRooms)
	assert.Equal(t, 2, snap.Players)
	assert.Positive(t, snap.Uptime)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestServer_Stop(t *testing.T) {
	srv, _, done := startServer(t, testConfig(), &recordingSink{}, logger.Nop())

	srv.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
}

func TestServer_StopBeforeRun(t *testing.T) {
	srv := server.NewServer(testConfig(), game.NewRegistry(logger.Nop()), &recordingSink{}, logger.Nop())
	require.NoError(t, srv.Initialize())

	srv.Stop()
	done := make(chan error, 1)
	go func() { done <- srv.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after an early Stop")
	}
}

func TestServer_Heartbeat(t *testing.T) {
	var buf syncBuffer
	log := logger.New("server", logger.WithOutput(&buf), logger.WithoutColor())
	startServer(t, testConfig(), &recordingSink{}, log)

	require.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "Server running...")
	}, 2*time.Second, 5*time.Millisecond)
}

func TestServer_Snapshot(t *testing.T) {
	cfg := testConfig()
	srv := server.NewServer(cfg, game.NewRegistry(logger.Nop()), nil, logger.Nop())

	assert.Equal(t, stats.Snapshot{}, zeroTimes(srv.Snapshot()))

	room := srv.Rooms().CreateRoom("solo", 3)
	room.AddPlayer(game.NewPlayer(7, "Dana"))
	snap := srv.Snapshot()
	assert.Equal(t, 1, snap.Rooms)
	assert.Equal(t, 0, snap.StartedRooms)
	assert.Equal(t, 1, snap.Players)
	assert.Equal(t, 0, snap.Connections)
}

func TestServer_SeedRooms(t *testing.T) {
	cfg := testConfig()
	cfg.Rooms = []config.RoomSeed{
		{Name: "Battle Room", MaxPlayers: 4},
		{Name: "Casual Game", MaxPlayers: 0},
	}
	srv := server.NewServer(cfg, game.NewRegistry(logger.Nop()), nil, logger.Nop())
	srv.SeedRooms()

	rooms := srv.Rooms().AllRooms()
	require.Len(t, rooms, 2)
	assert.Equal(t, "Battle Room", rooms[0].Name())
	assert.Equal(t, 4, rooms[0].MaxPlayers())
	assert.Equal(t, game.DefaultMaxPlayers, rooms[1].MaxPlayers())
}

func TestRunDemo(t *testing.T) {
	var buf syncBuffer
	log := logger.New("game", logger.WithOutput(&buf), logger.WithoutColor())
	rooms := game.NewRegistry(log)

	server.RunDemo(rooms)

	battle := rooms.GetRoom(1)
	casual := rooms.GetRoom(2)
	require.NotNil(t, battle)
	require.NotNil(t, casual)
	assert.True(t, battle.IsStarted())
	assert.Equal(t, 2, battle.PlayerCount())
	assert.False(t, casual.IsStarted())
	assert.Equal(t, 1, casual.PlayerCount())

	out := buf.String()
	assert.Contains(t, out, "Room 1 (Battle Room): 2/4 players")
	assert.Contains(t, out, "Room 1 (Battle Room): 2/4 players [IN GAME]")
	assert.Contains(t, out, "Room 2 (Casual Game): 1/2 players")
}

type countingHooks struct {
	cleanup, updates, logic, stats atomic.Int64
}

func (h *countingHooks) CleanUpRooms()         { h.cleanup.Add(1) }
func (h *countingHooks) SendUpdatesToClients() { h.updates.Add(1) }
func (h *countingHooks) HandleGameLogic()      { h.logic.Add(1) }
func (h *countingHooks) LogServerStats()       { h.stats.Add(1) }

func TestTickDriver(t *testing.T) {
	hooks := &countingHooks{}
	driver := server.NewTickDriver(hooks, config.TickConfig{
		Interval:          2 * time.Millisecond,
		HeartbeatInterval: time.Hour,
	}, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		driver.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return hooks.stats.Load() >= 3
	}, 2*time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("tick driver did not stop")
	}

	// every hook runs once per tick
	n := hooks.cleanup.Load()
	assert.Equal(t, n, hooks.updates.Load())
	assert.Equal(t, n, hooks.logic.Load())
	assert.Equal(t, n, hooks.stats.Load())
}

func zeroTimes(s stats.Snapshot) stats.Snapshot {
	s.Timestamp = time.Time{}
	s.Uptime = 0
	return s
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
