package schedule

import (
	"sync"
	"time"
)

// Task names used by a game session.
const (
	Main      = "main"
	Teleport  = "teleport"
	Countdown = "countdown"
)

// Fire is posted to the sink every time a task's interval elapses.
type Fire struct {
	Name string
	Seq  uint64 // generation of the task that fired; stale fires can be dropped
}

// Scheduler owns a set of named periodic tasks. Each task runs on its own
// goroutine and only ever posts Fire values into the sink, so the consumer
// decides on which goroutine the work happens.
type Scheduler struct {
	mu    sync.Mutex
	sink  chan<- Fire
	tasks map[string]*task
	seq   uint64
}

type task struct {
	seq  uint64
	stop chan struct{}
	done chan struct{}
}

func New(sink chan<- Fire) *Scheduler {
	return &Scheduler{
		sink:  sink,
		tasks: make(map[string]*task),
	}
}

// Every starts (or restarts) the named task. It returns the generation
// number stamped on every Fire the task produces.
func (s *Scheduler) Every(name string, interval time.Duration) uint64 {
	s.mu.Lock()
	old := s.tasks[name]
	s.seq++
	t := &task{
		seq:  s.seq,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	s.tasks[name] = t
	s.mu.Unlock()

	if old != nil {
		old.halt()
	}
	go t.run(name, interval, s.sink)
	return t.seq
}

// Cancel stops the named task. After it returns the task posts nothing more.
func (s *Scheduler) Cancel(name string) bool {
	s.mu.Lock()
	t, ok := s.tasks[name]
	delete(s.tasks, name)
	s.mu.Unlock()
	if ok {
		t.halt()
	}
	return ok
}

func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	tasks := s.tasks
	s.tasks = make(map[string]*task)
	s.mu.Unlock()
	for _, t := range tasks {
		t.halt()
	}
}

func (s *Scheduler) Active(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[name]
	return ok
}

// Seq returns the live generation of the named task.
func (s *Scheduler) Seq(name string) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[name]
	if !ok {
		return 0, false
	}
	return t.seq, true
}

// Current reports whether seq is the live generation of the named task.
func (s *Scheduler) Current(name string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[name]
	return ok && t.seq == seq
}

func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		out = append(out, name)
	}
	return out
}

func (t *task) run(name string, interval time.Duration, sink chan<- Fire) {
	defer close(t.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			select {
			case sink <- Fire{Name: name, Seq: t.seq}:
			case <-t.stop:
				return
			}
		}
	}
}

func (t *task) halt() {
	close(t.stop)
	<-t.done
}
