package room

import (
	"errors"
	"sync"
	"testing"
	"time"

	"cubechase/game"
	"cubechase/protocol"
	"cubechase/schedule"
)

type fakeConn struct {
	mu     sync.Mutex
	sent   []protocol.Envelope
	sendCh chan []byte
	closed bool
	fail   error
}

func newFakeConn() *fakeConn {
	return &fakeConn{sendCh: make(chan []byte, 1024)}
}

func (f *fakeConn) Send(b []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	env, err := protocol.DecodeEnvelope(b)
	if err != nil {
		return err
	}
	f.sent = append(f.sent, env)
	cp := make([]byte, len(b))
	copy(cp, b)
	select {
	case f.sendCh <- cp:
	default:
	}
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, e := range f.sent {
		out = append(out, e.T)
	}
	return out
}

func (f *fakeConn) last(t string) (protocol.Envelope, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].T == t {
			return f.sent[i], true
		}
	}
	return protocol.Envelope{}, false
}

// newTestRoom returns a room that is driven directly from the test
// goroutine instead of through Run.
func newTestRoom(t *testing.T) (*Room, *fakeConn) {
	t.Helper()
	r := New(Options{Seed: 1})
	t.Cleanup(r.sched.CancelAll)
	fc := newFakeConn()
	reply := make(chan JoinResult, 1)
	r.handleCommand(Join{Conn: fc, Name: "test", Reply: reply})
	if res := <-reply; res.Err != nil || res.SessionID == "" {
		t.Fatalf("join failed: %+v", res)
	}
	return r, fc
}

// fire delivers one tick of the named task as if the scheduler had sent it.
func fire(t *testing.T, r *Room, name string) {
	t.Helper()
	seq, ok := r.sched.Seq(name)
	if !ok {
		t.Fatalf("task %q not scheduled", name)
	}
	r.handleFire(schedule.Fire{Name: name, Seq: seq})
}

func grabWith(t *testing.T, r *Room, id game.EntityID, key string) {
	t.Helper()
	r.handleCommand(Key{Key: "1"})
	r.state.Selected = id
	r.state.Entity(id).Pos = r.state.Object.Pos
	r.handleCommand(Key{Key: key})
	if r.state.Object.Holder != id {
		t.Fatalf("setup: entity %d failed to grab", id)
	}
}

func TestJoinSendsWelcomeAndMode(t *testing.T) {
	_, fc := newTestRoom(t)
	types := fc.types()
	if len(types) != 2 || types[0] != protocol.MsgWelcome || types[1] != protocol.MsgMode {
		t.Fatalf("sent %v, want [welcome mode]", types)
	}
	env, _ := fc.last(protocol.MsgWelcome)
	w, err := protocol.DecodePayload[protocol.Welcome](env)
	if err != nil {
		t.Fatalf("decode welcome: %v", err)
	}
	if w.SessionID == "" || w.TickHz != protocol.SimTickHz {
		t.Fatalf("bad welcome %+v", w)
	}
}

func TestSecondJoinIsRefused(t *testing.T) {
	r, _ := newTestRoom(t)
	reply := make(chan JoinResult, 1)
	r.handleCommand(Join{Conn: newFakeConn(), Reply: reply})
	if res := <-reply; !errors.Is(res.Err, ErrRoomFull) {
		t.Fatalf("second join err = %v, want ErrRoomFull", res.Err)
	}
}

func TestStartSchedulesMainAndTeleport(t *testing.T) {
	r, fc := newTestRoom(t)
	r.handleCommand(Start{Width: 1000, Height: 700})

	if r.state.Mode != game.ModeRunning {
		t.Fatalf("mode = %v, want running", r.state.Mode)
	}
	if r.state.Court != (game.Court{Width: 1000, Height: 700}) {
		t.Fatalf("court = %+v, want viewport size", r.state.Court)
	}
	if !r.sched.Active(schedule.Main) || !r.sched.Active(schedule.Teleport) || r.sched.Active(schedule.Countdown) {
		t.Fatalf("tasks = %v, want main and teleport", r.sched.Names())
	}

	fire(t, r, schedule.Main)
	env, ok := fc.last(protocol.MsgPositions)
	if !ok {
		t.Fatalf("no positions after a main tick")
	}
	pos, err := protocol.DecodePayload[protocol.Positions](env)
	if err != nil {
		t.Fatalf("decode positions: %v", err)
	}
	if pos.Tick != 1 || len(pos.Entities) != game.EntityCount {
		t.Fatalf("positions = tick %d with %d entities", pos.Tick, len(pos.Entities))
	}
}

func TestStartWithoutViewportUsesDefaultCourt(t *testing.T) {
	r, _ := newTestRoom(t)
	r.handleCommand(Start{})
	if r.state.Court != (game.Court{Width: game.DefaultCourtW, Height: game.DefaultCourtH}) {
		t.Fatalf("court = %+v, want defaults", r.state.Court)
	}
}

func TestGrabStartsCountdown(t *testing.T) {
	r, fc := newTestRoom(t)
	r.handleCommand(Start{})
	grabWith(t, r, 2, "c")

	if !r.sched.Active(schedule.Countdown) {
		t.Fatalf("countdown not scheduled after grab")
	}
	env, ok := fc.last(protocol.MsgHoldTimer)
	if !ok {
		t.Fatalf("hold timer not shown")
	}
	ht, _ := protocol.DecodePayload[protocol.HoldTimer](env)
	if !ht.Visible || ht.Remaining != 15 {
		t.Fatalf("hold timer = %+v, want visible 15", ht)
	}
}

func TestHoldingTooLongEndsGameAndCancelsTasks(t *testing.T) {
	r, fc := newTestRoom(t)
	r.handleCommand(Start{})
	grabWith(t, r, 1, "c")

	for i := 0; i < game.HoldTenths; i++ {
		fire(t, r, schedule.Countdown)
	}
	if r.state.Mode != game.ModeEnded || r.state.Winner != game.Team2 {
		t.Fatalf("mode=%v winner=%d, want ended/2", r.state.Mode, r.state.Winner)
	}
	if names := r.sched.Names(); len(names) != 0 {
		t.Fatalf("tasks still scheduled after the end: %v", names)
	}
	env, ok := fc.last(protocol.MsgEnd)
	if !ok {
		t.Fatalf("end screen not sent")
	}
	end, _ := protocol.DecodePayload[protocol.End](env)
	if end.WinningTeam != 2 {
		t.Fatalf("winning team = %d, want 2", end.WinningTeam)
	}
}

func TestPauseFreezesTicks(t *testing.T) {
	r, _ := newTestRoom(t)
	r.handleCommand(Start{})
	grabWith(t, r, 6, "m")
	fire(t, r, schedule.Main)
	fire(t, r, schedule.Countdown)

	r.handleCommand(TogglePause{})
	tick, timer, obj := r.state.Tick, r.state.HoldTimer(), r.state.Object
	for i := 0; i < 50; i++ {
		fire(t, r, schedule.Main)
		fire(t, r, schedule.Countdown)
		fire(t, r, schedule.Teleport)
		r.handleCommand(Key{Key: game.KeyUp})
	}
	if r.state.Tick != tick || r.state.HoldTimer() != timer || r.state.Object != obj {
		t.Fatalf("state advanced while paused")
	}
	if r.state.Selected != 6 || r.state.Object.Holder != 6 {
		t.Fatalf("selection or holder lost across pause")
	}

	r.handleCommand(TogglePause{})
	fire(t, r, schedule.Main)
	if r.state.Tick != tick+1 {
		t.Fatalf("tick after resume = %d, want %d", r.state.Tick, tick+1)
	}
}

func TestResetIsAColdRestart(t *testing.T) {
	r, fc := newTestRoom(t)
	r.handleCommand(Start{Width: 1000, Height: 700})
	grabWith(t, r, 3, "c")
	oldMain, _ := r.sched.Seq(schedule.Main)
	fire(t, r, schedule.Main)

	r.handleCommand(Reset{})
	if names := r.sched.Names(); len(names) != 0 {
		t.Fatalf("tasks survived reset: %v", names)
	}
	fresh := game.NewState(game.Court{Width: game.DefaultCourtW, Height: game.DefaultCourtH}, nil)
	if r.state.Mode != game.ModeNotStarted || r.state.Selected != game.NoEntity || r.state.Object.Holder != game.NoEntity || r.state.Tick != 0 {
		t.Fatalf("state not fresh after reset: %+v", r.status())
	}
	for i, e := range r.state.Entities {
		if e.Pos != fresh.Entities[i].Pos {
			t.Fatalf("entity %d at %+v after reset, want spawn %+v", e.ID, e.Pos, fresh.Entities[i].Pos)
		}
	}

	r.handleFire(schedule.Fire{Name: schedule.Main, Seq: oldMain})
	if r.state.Tick != 0 {
		t.Fatalf("stale main tick ran after reset")
	}
	env, _ := fc.last(protocol.MsgMode)
	m, _ := protocol.DecodePayload[protocol.Mode](env)
	if m.Mode != game.ModeNotStarted.String() {
		t.Fatalf("mode sent after reset = %q", m.Mode)
	}
}

func TestLeaveClosesConnAndNotifies(t *testing.T) {
	r, fc := newTestRoom(t)
	r.Code = "ROOM01"
	var emptied string
	r.OnEmpty = func(code string) { emptied = code }

	r.handleCommand(Leave{SessionID: "someone-else"})
	if fc.closed || r.NumPlayers() != 1 {
		t.Fatalf("leave for an unknown session dropped the client")
	}
	r.handleCommand(Leave{SessionID: r.sessionID})
	if !fc.closed || r.NumPlayers() != 0 || emptied != "ROOM01" {
		t.Fatalf("closed=%v players=%d emptied=%q", fc.closed, r.NumPlayers(), emptied)
	}
}

func TestSendFailureDropsClient(t *testing.T) {
	r, fc := newTestRoom(t)
	r.handleCommand(Start{})
	fc.mu.Lock()
	fc.fail = errors.New("broken pipe")
	fc.mu.Unlock()

	fire(t, r, schedule.Main)
	if r.client != nil || r.NumPlayers() != 0 {
		t.Fatalf("client kept after send failure")
	}
	fire(t, r, schedule.Main)
	if r.state.Tick != 2 {
		t.Fatalf("simulation stopped with the client: tick=%d", r.state.Tick)
	}
}

func TestLocalRendererReceivesCalls(t *testing.T) {
	rec := &recordingRenderer{}
	r := New(Options{Seed: 3, Renderer: rec})
	defer r.sched.CancelAll()
	r.handleCommand(Start{})
	fire(t, r, schedule.Main)
	if rec.frames != 1 || len(rec.modes) != 1 || rec.modes[0] != game.ModeRunning {
		t.Fatalf("local renderer frames=%d modes=%v", rec.frames, rec.modes)
	}
}

type recordingRenderer struct {
	game.NopRenderer
	frames int
	modes  []game.Mode
}

func (r *recordingRenderer) RenderPositions(game.Vec, []game.EntityPosition) {
	r.frames++
}

func (r *recordingRenderer) ModeChanged(m game.Mode) {
	r.modes = append(r.modes, m)
}

func TestRunLoopDrivesRealTimers(t *testing.T) {
	r := New(Options{Seed: 5})
	go r.Run()
	defer r.Stop()

	fc := newFakeConn()
	reply := make(chan JoinResult, 1)
	if err := r.Send(Join{Conn: fc, Name: "live", Reply: reply}); err != nil {
		t.Fatalf("send join: %v", err)
	}
	<-reply
	if err := r.Send(Start{}); err != nil {
		t.Fatalf("send start: %v", err)
	}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case b := <-fc.sendCh:
			env, err := protocol.DecodeEnvelope(b)
			if err != nil {
				t.Fatalf("decode envelope: %v", err)
			}
			if env.T == protocol.MsgPositions {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for positions")
		}
	}
}

func TestInspectAndSendAfterStop(t *testing.T) {
	r := New(Options{Seed: 5})
	go r.Run()

	reply := make(chan Status, 1)
	if err := r.Send(Inspect{Reply: reply}); err != nil {
		t.Fatalf("send inspect: %v", err)
	}
	st := <-reply
	if st.Mode != game.ModeNotStarted || len(st.Entities) != game.EntityCount {
		t.Fatalf("status = %+v", st)
	}

	r.Stop()
	r.Stop()
	if err := r.Send(Reset{}); !errors.Is(err, ErrStopped) {
		t.Fatalf("send after stop err = %v, want ErrStopped", err)
	}
}

func TestJoinQueuedBehindStopIsAnswered(t *testing.T) {
	r := New(Options{Seed: 5})
	reply := make(chan JoinResult, 1)
	if err := r.Send(Join{Conn: newFakeConn(), Name: "late", Reply: reply}); err != nil {
		t.Fatalf("send join: %v", err)
	}
	r.Stop()

	done := make(chan struct{})
	go func() {
		r.Run()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after Stop")
	}
	// Run picks quit or the inbox at random; the join is answered either way.
	select {
	case <-reply:
	default:
		t.Fatalf("queued join got no reply")
	}
	select {
	case <-r.Done():
	default:
		t.Fatalf("Done not closed after Stop")
	}
}

func TestIdleRoomClosesItself(t *testing.T) {
	r := New(Options{Seed: 5, IdleTimeout: 20 * time.Millisecond})
	r.Code = "IDLE01"
	emptied := make(chan string, 1)
	r.OnEmpty = func(code string) {
		emptied <- code
		r.Stop()
	}
	go r.Run()
	defer r.Stop()

	select {
	case code := <-emptied:
		if code != "IDLE01" {
			t.Fatalf("OnEmpty(%q), want IDLE01", code)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("idle room was never closed")
	}
}

func TestIdleTimeoutIgnoredOnceJoined(t *testing.T) {
	r := New(Options{Seed: 5, IdleTimeout: 20 * time.Millisecond})
	r.Code = "BUSY01"
	emptied := make(chan string, 1)
	r.OnEmpty = func(code string) { emptied <- code }
	go r.Run()
	defer r.Stop()

	reply := make(chan JoinResult, 1)
	if err := r.Send(Join{Conn: newFakeConn(), Name: "early", Reply: reply}); err != nil {
		t.Fatalf("send join: %v", err)
	}
	if res := <-reply; res.Err != nil {
		t.Fatalf("join: %v", res.Err)
	}

	select {
	case code := <-emptied:
		t.Fatalf("joined room %s closed as idle", code)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestIdleRoomWithoutManagerStops(t *testing.T) {
	r := New(Options{Seed: 5, IdleTimeout: 10 * time.Millisecond})
	go r.Run()
	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("idle room without a manager did not stop")
	}
}
