// Package replica runs one client's copy of the ledger state machine.
//
// A Replica applies commands locally, persists the full snapshot after
// every change and exchanges commands with the other replicas of its
// session over a bus. Remote commands go through the same ledger.Apply as
// local ones, so replicas that receive the same sequence converge.
package replica

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/bus"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/storage"
)

var (
	ErrMissingStore = errors.New("replica requires a snapshot store")
	ErrMissingBus   = errors.New("replica requires a command bus")
)

// Options configures a Replica. Store and Bus are required.
type Options struct {
	Store   storage.SnapshotStore
	Bus     bus.CommandBus
	Session string
	// Origin identifies this replica on the bus. A random id is used when empty.
	Origin string
	// Initial is the state used when nothing has been persisted. Defaults
	// to ledger.InitialState().
	Initial *ledger.State
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Clock   func() time.Time
}

// Replica is safe for concurrent use.
type Replica struct {
	store   storage.SnapshotStore
	bus     bus.CommandBus
	session string
	origin  string
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	// mu serialises apply, persist and publish so this origin's commands
	// leave in the order they were applied.
	mu    sync.Mutex
	state ledger.State
	seq   uint64

	watchMu  sync.Mutex
	watchers map[chan ledger.State]struct{}

	ready     chan struct{}
	readyOnce sync.Once
}

// New builds a replica and restores the persisted snapshot, if any.
// Snapshots that are missing, corrupt or from a newer schema are logged
// and ignored; the replica then starts from Options.Initial.
func New(ctx context.Context, opts Options) (*Replica, error) {
	if opts.Store == nil {
		return nil, ErrMissingStore
	}
	if opts.Bus == nil {
		return nil, ErrMissingBus
	}
	if opts.Origin == "" {
		opts.Origin = uuid.NewString()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	initial := ledger.InitialState()
	if opts.Initial != nil {
		initial = *opts.Initial
	}

	r := &Replica{
		store:    opts.Store,
		bus:      opts.Bus,
		session:  opts.Session,
		origin:   opts.Origin,
		logger:   opts.Logger.With("origin", opts.Origin, "session", opts.Session),
		metrics:  opts.Metrics,
		now:      opts.Clock,
		state:    initial,
		watchers: make(map[chan ledger.State]struct{}),
		ready:    make(chan struct{}),
	}
	r.restore(ctx)
	return r, nil
}

func (r *Replica) restore(ctx context.Context) {
	data, err := r.store.Get(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		r.logger.Info("No persisted snapshot, starting fresh")
		return
	}
	if err != nil {
		r.logger.Warn("Failed to load snapshot", "error", err)
		r.metrics.SnapshotFailed(metrics.OpLoad)
		return
	}

	patch, err := ledger.UnmarshalSnapshot(data)
	if err != nil {
		r.logger.Warn("Ignoring persisted snapshot", "error", err)
		r.metrics.SnapshotFailed(metrics.OpDecode)
		return
	}

	r.state = ledger.Apply(r.state, ledger.Initialize{Patch: patch})
	// A snapshot taken mid-request must not leave the replica stuck loading.
	r.state.IsLoading = false
	r.metrics.CommandApplied(metrics.SourceLocal, string(ledger.TypeInitialize))
	attrs := []any{
		"groups", len(r.state.Groups),
		"expenses", len(r.state.Expenses),
	}
	if ts, ok := r.store.(storage.Timestamped); ok {
		if at, err := ts.UpdatedAt(ctx); err == nil {
			attrs = append(attrs, "age", r.now().Sub(at).Round(time.Second))
		}
	}
	r.logger.Info("Restored snapshot", attrs...)
}

// Origin returns the id this replica publishes under.
func (r *Replica) Origin() string { return r.origin }

// Session returns the session this replica belongs to.
func (r *Replica) Session() string { return r.session }

// Snapshot returns a deep copy of the current state.
func (r *Replica) Snapshot() ledger.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Clone()
}

// Dispatch applies cmd, persists the result and publishes cmd to the
// session. Persistence and publish failures are logged and counted but
// never undo the local change.
func (r *Replica) Dispatch(ctx context.Context, cmd ledger.Command) ledger.State {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.applyLocked(ctx, cmd, metrics.SourceLocal)
	r.publishLocked(ctx, cmd)
	return next.Clone()
}

// Modify dispatches the command build derives from the current state.
// The read and the dispatch happen under one lock, so concurrent local
// read-modify-write calls never overwrite each other. build must not
// block. When it returns an error nothing is applied.
func (r *Replica) Modify(ctx context.Context, build func(ledger.State) (ledger.Command, error)) (ledger.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cmd, err := build(r.state.Clone())
	if err != nil {
		return ledger.State{}, err
	}
	next := r.applyLocked(ctx, cmd, metrics.SourceLocal)
	r.publishLocked(ctx, cmd)
	return next.Clone(), nil
}

// ApplyLocal applies and persists cmd without publishing it. Used for
// transient UI state such as the loading flag.
func (r *Replica) ApplyLocal(ctx context.Context, cmd ledger.Command) ledger.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applyLocked(ctx, cmd, metrics.SourceLocal).Clone()
}

func (r *Replica) applyLocked(ctx context.Context, cmd ledger.Command, source string) ledger.State {
	r.state = ledger.Apply(r.state, cmd)
	if cmd != nil {
		r.metrics.CommandApplied(source, string(cmd.Type()))
	}
	r.persistLocked(ctx)
	r.notify(r.state)
	return r.state
}

func (r *Replica) persistLocked(ctx context.Context) {
	data, err := ledger.MarshalSnapshot(r.state)
	if err != nil {
		r.logger.Error("Failed to encode snapshot", "error", err)
		r.metrics.SnapshotFailed(metrics.OpSave)
		return
	}
	if err := r.store.Set(ctx, data); err != nil {
		r.logger.Warn("Failed to persist snapshot", "error", err)
		r.metrics.SnapshotFailed(metrics.OpSave)
	}
}

func (r *Replica) publishLocked(ctx context.Context, cmd ledger.Command) {
	env, err := bus.NewEnvelope(r.session, r.origin, r.seq+1, cmd, r.now())
	if err != nil {
		r.logger.Warn("Command not publishable", "error", err)
		r.metrics.PublishFailed()
		return
	}
	r.seq++

	if err := r.bus.Publish(ctx, env); err != nil {
		r.logger.Warn("Failed to publish command",
			"type", env.Type,
			"seq", env.Seq,
			"error", err,
		)
		r.metrics.PublishFailed()
		return
	}
	r.metrics.CommandPublished()
	r.logger.Debug("Published command", "type", env.Type, "seq", env.Seq)
}

// Ready is closed once Run has subscribed to the bus.
func (r *Replica) Ready() <-chan struct{} { return r.ready }

// Run consumes the session's remote commands until ctx is done or the bus
// closes. Envelopes from this replica's own origin or another session are
// skipped; undecodable ones are logged and dropped.
func (r *Replica) Run(ctx context.Context) error {
	ch, err := r.bus.Subscribe(ctx)
	if err != nil {
		return err
	}
	r.readyOnce.Do(func() { close(r.ready) })
	r.logger.Info("Replica listening")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env, ok := <-ch:
			if !ok {
				if err := ctx.Err(); err != nil {
					return err
				}
				return bus.ErrClosed
			}
			r.receive(ctx, env)
		}
	}
}

func (r *Replica) receive(ctx context.Context, env bus.Envelope) {
	if env.Origin == r.origin {
		return
	}
	if env.Session != "" && r.session != "" && env.Session != r.session {
		return
	}
	cmd, err := env.Command()
	if err != nil {
		r.logger.Warn("Dropping undecodable envelope",
			"from", env.Origin,
			"seq", env.Seq,
			"error", err,
		)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.applyLocked(ctx, cmd, metrics.SourceRemote)
	r.logger.Debug("Applied remote command", "from", env.Origin, "type", env.Type, "seq", env.Seq)
}

// Watch returns a channel that receives the latest state after every
// change. Slow readers only see the most recent state. The channel is
// closed when ctx is done.
func (r *Replica) Watch(ctx context.Context) <-chan ledger.State {
	ch := make(chan ledger.State, 1)
	r.watchMu.Lock()
	r.watchers[ch] = struct{}{}
	r.watchMu.Unlock()

	go func() {
		<-ctx.Done()
		r.watchMu.Lock()
		delete(r.watchers, ch)
		close(ch)
		r.watchMu.Unlock()
	}()
	return ch
}

func (r *Replica) notify(s ledger.State) {
	r.watchMu.Lock()
	defer r.watchMu.Unlock()
	if len(r.watchers) == 0 {
		return
	}
	for ch := range r.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- s.Clone()
	}
}
