package room

import (
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"cubechase/game"
	"cubechase/protocol"
	"cubechase/schedule"
)

var (
	ErrRoomFull = errors.New("room already has a controlling connection")
	ErrStopped  = errors.New("room stopped")
)

type Options struct {
	Court    game.Court    // used when Start carries no viewport size
	Seed     int64         // 0 picks a time-based seed per session
	Renderer game.Renderer // optional local renderer, e.g. a terminal
	Logger   *zerolog.Logger

	// IdleTimeout closes a room nobody has joined within that time.
	// Zero keeps it open, which is what a local terminal session wants.
	IdleTimeout time.Duration
}

// Room is one game session. Everything that touches its state runs on the
// Run goroutine; the scheduler and transports only post into its channels.
type Room struct {
	Inbox  chan any
	fires  chan schedule.Fire
	sched  *schedule.Scheduler
	state  *game.State
	out    fanout
	court  game.Court
	seed   int64
	log    zerolog.Logger
	quit   chan struct{}
	once   sync.Once
	idle   time.Duration
	client Conn

	sessionID string
	clients   atomic.Int32

	Code    string            // room code (e.g. "ABC123")
	OnEmpty func(code string) // called when the controlling connection leaves
}

func New(opts Options) *Room {
	court := opts.Court
	if !court.Valid() {
		court = game.Court{Width: game.DefaultCourtW, Height: game.DefaultCourtH}
	}
	fires := make(chan schedule.Fire, 16)
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	r := &Room{
		Inbox: make(chan any, 256),
		fires: fires,
		sched: schedule.New(fires),
		court: court,
		seed:  opts.Seed,
		log:   log,
		quit:  make(chan struct{}),
		idle:  opts.IdleTimeout,
	}
	r.out = fanout{connRenderer{r: r}}
	if opts.Renderer != nil {
		r.out = append(r.out, opts.Renderer)
	}
	r.state = game.NewState(court, r.newRand())
	return r
}

func (r *Room) newRand() *rand.Rand {
	seed := r.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

func (r *Room) Stop() {
	r.once.Do(func() { close(r.quit) })
}

// Done is closed once the room has been stopped.
func (r *Room) Done() <-chan struct{} { return r.quit }

// Send posts a command to the room without blocking past its shutdown.
func (r *Room) Send(cmd any) error {
	select {
	case <-r.quit:
		return ErrStopped
	default:
	}
	select {
	case <-r.quit:
		return ErrStopped
	case r.Inbox <- cmd:
		return nil
	}
}

// NumPlayers returns the current number of connected clients.
func (r *Room) NumPlayers() int {
	return int(r.clients.Load())
}

func (r *Room) Run() {
	defer r.sched.CancelAll()
	r.log.Debug().Str("room", r.Code).Msg("room running")

	var idle <-chan time.Time
	if r.idle > 0 {
		t := time.NewTimer(r.idle)
		defer t.Stop()
		idle = t.C
	}

	for {
		select {
		case <-r.quit:
			r.drain()
			r.log.Debug().Str("room", r.Code).Msg("room stopped")
			return
		case cmd := <-r.Inbox:
			r.handleCommand(cmd)
		case f := <-r.fires:
			r.handleFire(f)
		case <-idle:
			idle = nil
			if r.client == nil {
				r.log.Info().Str("room", r.Code).Dur("after", r.idle).Msg("nobody joined, closing room")
				r.close()
			}
		}
	}
}

// drain answers joins that were queued behind the shutdown so their
// callers are not left waiting on a reply.
func (r *Room) drain() {
	for {
		select {
		case cmd := <-r.Inbox:
			if j, ok := cmd.(Join); ok {
				select {
				case j.Reply <- JoinResult{Err: ErrStopped}:
				default:
				}
			}
		default:
			return
		}
	}
}

// close hands the room back to its manager, or just stops it when it has none.
func (r *Room) close() {
	if r.OnEmpty != nil && r.Code != "" {
		r.OnEmpty(r.Code)
		return
	}
	r.Stop()
}

func (r *Room) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case Join:
		c.Reply <- r.handleJoin(c)
	case Leave:
		r.handleLeave(c.SessionID)
	case Start:
		r.handleStart(game.Court{Width: c.Width, Height: c.Height})
	case TogglePause:
		if r.state.TogglePause() {
			r.log.Info().Str("room", r.Code).Stringer("mode", r.state.Mode).Msg("pause toggled")
			r.out.ModeChanged(r.state.Mode)
		}
	case Reset:
		r.handleReset()
	case Key:
		r.handleKey(c.Key)
	case Inspect:
		c.Reply <- r.status()
	default:
		r.log.Warn().Str("room", r.Code).Msgf("unknown command %T", cmd)
	}
}

func (r *Room) handleFire(f schedule.Fire) {
	// A fire queued before its task was cancelled or replaced is stale.
	if !r.sched.Current(f.Name, f.Seq) {
		return
	}
	switch f.Name {
	case schedule.Main:
		game.Step(r.state, r.out)
	case schedule.Teleport:
		if game.Teleport(r.state, r.out) {
			r.log.Debug().Str("room", r.Code).Float64("x", r.state.Object.Pos.X).Float64("y", r.state.Object.Pos.Y).Msg("object teleported")
		}
	case schedule.Countdown:
		if game.CountdownTick(r.state, r.out) {
			r.finish()
		}
	}
}

func (r *Room) handleJoin(c Join) JoinResult {
	if r.client != nil {
		return JoinResult{Err: ErrRoomFull}
	}
	r.client = c.Conn
	r.sessionID = uuid.NewString()
	r.clients.Store(1)
	r.log.Info().Str("room", r.Code).Str("session", r.sessionID).Str("name", c.Name).Msg("client joined")

	r.send(protocol.MsgWelcome, protocol.Welcome{
		SessionID: r.sessionID,
		Room:      r.Code,
		TickHz:    protocol.SimTickHz,
		Width:     r.state.Court.Width,
		Height:    r.state.Court.Height,
	})
	r.send(protocol.MsgMode, protocol.Mode{Mode: r.state.Mode.String()})
	return JoinResult{SessionID: r.sessionID}
}

func (r *Room) handleLeave(sessionID string) {
	if r.client == nil || sessionID != r.sessionID {
		return
	}
	r.dropClient()
	if r.OnEmpty != nil && r.Code != "" {
		r.OnEmpty(r.Code)
	}
}

func (r *Room) dropClient() {
	if r.client == nil {
		return
	}
	_ = r.client.Close()
	r.log.Info().Str("room", r.Code).Str("session", r.sessionID).Msg("client left")
	r.client = nil
	r.sessionID = ""
	r.clients.Store(0)
}

func (r *Room) handleStart(viewport game.Court) {
	if !r.state.Start(viewport) {
		return
	}
	r.sched.Every(schedule.Main, game.MainInterval)
	r.sched.Every(schedule.Teleport, game.TeleportInterval)
	r.log.Info().Str("room", r.Code).
		Float64("width", r.state.Court.Width).
		Float64("height", r.state.Court.Height).
		Msg("game started")
	r.out.ModeChanged(r.state.Mode)
}

func (r *Room) handleKey(key string) {
	res := game.HandleKey(r.state, key, r.out)
	if !res.Changed() || (res.Moved && !res.Grabbed) {
		return
	}
	ev := r.log.Debug().Str("room", r.Code).Str("key", key).Int("selected", int(r.state.Selected))
	switch {
	case res.Grabbed:
		r.sched.Every(schedule.Countdown, game.CountdownInterval)
		ev.Int("holder", int(r.state.Object.Holder)).Msg("object grabbed")
	case res.Stolen:
		ev.Int("from", int(res.PrevOwner)).Int("holder", int(r.state.Object.Holder)).Msg("object stolen")
	case res.Passed:
		ev.Int("from", int(res.PrevOwner)).Int("holder", int(r.state.Object.Holder)).Msg("object passed")
	default:
		ev.Msg("selection changed")
	}
}

// finish runs once the possession timer has expired.
func (r *Room) finish() {
	r.sched.CancelAll()
	r.log.Info().Str("room", r.Code).Int("winner", int(r.state.Winner)).Int("tick", r.state.Tick).Msg("game over")
	r.out.ModeChanged(r.state.Mode)
}

// handleReset throws the whole session away and starts from scratch.
func (r *Room) handleReset() {
	r.sched.CancelAll()
	r.state = game.NewState(r.court, r.newRand())
	r.log.Info().Str("room", r.Code).Msg("game reset")
	r.out.HideHoldTimer()
	r.out.ModeChanged(r.state.Mode)
}

func (r *Room) status() Status {
	return Status{
		Code:      r.Code,
		Mode:      r.state.Mode,
		Winner:    r.state.Winner,
		Tick:      r.state.Tick,
		Court:     r.state.Court,
		Object:    r.state.Object,
		Selected:  r.state.Selected,
		HoldTimer: r.state.HoldTimer(),
		Entities:  r.state.Positions(),
		Tasks:     r.sched.Names(),
		Clients:   r.NumPlayers(),
	}
}

func (r *Room) send(t string, payload any) {
	if r.client == nil {
		return
	}
	b, err := protocol.Encode(t, payload)
	if err != nil {
		r.log.Error().Err(err).Str("room", r.Code).Str("type", t).Msg("encode failed")
		return
	}
	if err := r.client.Send(b); err != nil {
		r.log.Warn().Err(err).Str("room", r.Code).Msg("send failed, dropping client")
		r.dropClient()
	}
}
