package charge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// command runs against one actor on the tick goroutine.
type command struct {
	objectID uint32
	fn       func(*Actor)
}

// TickManager drives every registered Actor from a single goroutine.
// Input from other goroutines is queued as commands and drained before each tick,
// so actor state is only ever touched by the ticking goroutine.
type TickManager struct {
	actors     sync.Map // map[uint32]*Actor — objectID → actor
	actorCount atomic.Int32
	commands   chan command
	beforeTick func(tick int) bool
	ticks      int
}

// NewTickManager creates a tick manager with a command queue of queueSize.
func NewTickManager(queueSize int) *TickManager {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &TickManager{
		commands: make(chan command, queueSize),
	}
}

// SetBeforeTick installs a hook run at the start of every tick, before commands.
// Returning false stops the manager.
func (m *TickManager) SetBeforeTick(fn func(tick int) bool) {
	m.beforeTick = fn
}

// Register adds an actor.
func (m *TickManager) Register(a *Actor) {
	if _, loaded := m.actors.LoadOrStore(a.ID(), a); !loaded {
		m.actorCount.Add(1)
	}
	slog.Debug("actor registered",
		"objectID", a.ID(),
		"mode", a.Mode())
}

// Unregister dismisses and removes an actor.
// Must be called from the tick goroutine or while the manager is stopped.
func (m *TickManager) Unregister(objectID uint32) {
	value, ok := m.actors.LoadAndDelete(objectID)
	if !ok {
		return
	}
	m.actorCount.Add(-1)
	value.(*Actor).Dismiss()
	slog.Debug("actor unregistered", "objectID", objectID)
}

// Do queues fn to run against the actor on the next tick.
// Returns false if the queue is full.
func (m *TickManager) Do(objectID uint32, fn func(*Actor)) bool {
	select {
	case m.commands <- command{objectID: objectID, fn: fn}:
		return true
	default:
		slog.Warn("command queue full, dropping command", "objectID", objectID)
		return false
	}
}

// PressKey queues a context key press for the actor.
// Actors without a bound key ignore it.
func (m *TickManager) PressKey(objectID uint32) bool {
	return m.Do(objectID, func(a *Actor) {
		if a.KeyBound() {
			a.HandleContextKey()
		}
	})
}

// Start ticks at interval until ctx is canceled or the before-tick hook stops it.
// Elapsed time passed to actors is measured from the wall clock.
func (m *TickManager) Start(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("charge tick manager started", "interval", interval)

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			slog.Info("charge tick manager stopping")
			return ctx.Err()

		case now := <-ticker.C:
			elapsed := now.Sub(last).Seconds()
			last = now
			if !m.Step(elapsed) {
				slog.Info("charge tick manager stopped", "ticks", m.ticks)
				return nil
			}
		}
	}
}

// Step runs one tick with the given elapsed seconds.
// Returns false if the before-tick hook asked to stop.
func (m *TickManager) Step(elapsed float64) bool {
	if m.beforeTick != nil && !m.beforeTick(m.ticks) {
		return false
	}
	m.drainCommands()
	m.tickAll(elapsed)
	m.ticks++
	return true
}

// Ticks returns the number of completed ticks.
func (m *TickManager) Ticks() int {
	return m.ticks
}

// Count returns number of registered actors.
func (m *TickManager) Count() int {
	return int(m.actorCount.Load())
}

// Actor returns the registered actor with objectID.
func (m *TickManager) Actor(objectID uint32) (*Actor, error) {
	value, ok := m.actors.Load(objectID)
	if !ok {
		return nil, fmt.Errorf("actor not found for objectID %d", objectID)
	}
	return value.(*Actor), nil
}

func (m *TickManager) drainCommands() {
	for {
		select {
		case cmd := <-m.commands:
			a, err := m.Actor(cmd.objectID)
			if err != nil {
				slog.Debug("dropping command", "error", err)
				continue
			}
			cmd.fn(a)
		default:
			return
		}
	}
}

func (m *TickManager) tickAll(elapsed float64) {
	m.actors.Range(func(_, value any) bool {
		value.(*Actor).Update(elapsed)
		return true
	})
}
