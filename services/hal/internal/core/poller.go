package core

import (
	"container/heap"
	"context"
	"math/rand"
	"sync"
	"time"
)

// PollReq asks HAL to invoke Verb on Addr as if a control had arrived.
// Every is the interval in force when the request fired.
type PollReq struct {
	Addr  CapAddr
	Verb  string
	Every time.Duration
}

// maxBackoffShift caps how far a failing capability is slowed down:
// at most 2^maxBackoffShift times its configured interval.
const maxBackoffShift = 4

type pollKey struct {
	addr CapAddr
	verb string
}

// schedule is one periodic verb. misses counts consecutive degraded
// samples of its capability and stretches the interval.
type schedule struct {
	key    pollKey
	base   time.Duration
	jitter time.Duration
	misses uint8
	due    time.Time
	slot   int
}

func (s *schedule) interval() time.Duration { return s.base << s.misses }

// dueQueue orders schedules by their next due time.
type dueQueue []*schedule

func (q dueQueue) Len() int           { return len(q) }
func (q dueQueue) Less(i, j int) bool { return q[i].due.Before(q[j].due) }
func (q dueQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].slot, q[j].slot = i, j
}
func (q *dueQueue) Push(x any) {
	s := x.(*schedule)
	s.slot = len(*q)
	*q = append(*q, s)
}
func (q *dueQueue) Pop() any {
	old := *q
	s := old[len(old)-1]
	s.slot = -1
	*q = old[:len(old)-1]
	return s
}

// Poller fires PollReqs on out as schedules fall due. Sends never block:
// a request the HAL loop has no room for is dropped and the schedule
// simply re-arms.
type Poller struct {
	mu    sync.Mutex
	byKey map[pollKey]*schedule
	queue dueQueue
	kick  chan struct{}
	rng   *rand.Rand
	out   chan<- PollReq
	now   func() time.Time
}

func NewPoller(out chan<- PollReq) *Poller {
	return &Poller{
		byKey: make(map[pollKey]*schedule),
		kick:  make(chan struct{}, 1),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		out:   out,
		now:   time.Now,
	}
}

// Upsert adds a schedule or replaces an existing one, clearing any
// backoff. The first fire is one interval plus up to jitter from now.
func (p *Poller) Upsert(a CapAddr, verb string, interval, jitter time.Duration) {
	if interval <= 0 || verb == "" {
		return
	}
	if jitter < 0 {
		jitter = 0
	}
	key := pollKey{addr: a, verb: verb}

	p.mu.Lock()
	s, ok := p.byKey[key]
	if !ok {
		s = &schedule{key: key, slot: -1}
		p.byKey[key] = s
	}
	s.base, s.jitter, s.misses = interval, jitter, 0
	s.due = p.now().Add(p.jittered(interval, jitter))
	if ok {
		heap.Fix(&p.queue, s.slot)
	} else {
		heap.Push(&p.queue, s)
	}
	p.mu.Unlock()
	p.wakeup()
}

func (p *Poller) Stop(a CapAddr, verb string) {
	key := pollKey{addr: a, verb: verb}
	p.mu.Lock()
	if s, ok := p.byKey[key]; ok {
		heap.Remove(&p.queue, s.slot)
		delete(p.byKey, key)
	}
	p.mu.Unlock()
	p.wakeup()
}

// BumpAfter pushes the next fire to one interval after lastEmitNs, so an
// on-demand read does not get a redundant poll right behind it.
func (p *Poller) BumpAfter(a CapAddr, verb string, lastEmitNs int64) {
	p.mu.Lock()
	if s, ok := p.byKey[pollKey{addr: a, verb: verb}]; ok {
		due := time.Unix(0, lastEmitNs).Add(s.interval())
		if now := p.now(); due.Before(now) {
			due = now
		}
		s.due = due
		heap.Fix(&p.queue, s.slot)
	}
	p.mu.Unlock()
	p.wakeup()
}

// Degraded doubles the interval of every schedule on a, up to the backoff
// cap, and re-arms them from now.
func (p *Poller) Degraded(a CapAddr) {
	p.mu.Lock()
	now := p.now()
	for key, s := range p.byKey {
		if key.addr != a {
			continue
		}
		if s.misses < maxBackoffShift {
			s.misses++
		}
		s.due = now.Add(p.jittered(s.interval(), s.jitter))
		heap.Fix(&p.queue, s.slot)
	}
	p.mu.Unlock()
	p.wakeup()
}

// Healthy restores the configured interval of every backed-off schedule
// on a. A due time already within one interval is kept.
func (p *Poller) Healthy(a CapAddr) {
	p.mu.Lock()
	now := p.now()
	changed := false
	for key, s := range p.byKey {
		if key.addr != a || s.misses == 0 {
			continue
		}
		s.misses = 0
		if limit := now.Add(s.base); s.due.After(limit) {
			s.due = limit
			heap.Fix(&p.queue, s.slot)
		}
		changed = true
	}
	p.mu.Unlock()
	if changed {
		p.wakeup()
	}
}

// Interval reports the interval currently in force for (a, verb).
func (p *Poller) Interval(a CapAddr, verb string) (time.Duration, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.byKey[pollKey{addr: a, verb: verb}]
	if !ok {
		return 0, false
	}
	return s.interval(), true
}

// Len reports the number of active schedules.
func (p *Poller) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.byKey)
}

func (p *Poller) Run(ctx context.Context) {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		for _, req := range p.popDue() {
			select {
			case p.out <- req:
			default:
			}
		}

		wait, ok := p.untilNext()
		if !ok {
			wait = time.Hour
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-ctx.Done():
			return
		case <-p.kick:
		case <-timer.C:
		}
	}
}

// popDue re-arms every schedule that has fallen due and returns their
// requests in due order.
func (p *Poller) popDue() []PollReq {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	var reqs []PollReq
	for len(p.queue) > 0 && !p.queue[0].due.After(now) {
		s := p.queue[0]
		reqs = append(reqs, PollReq{Addr: s.key.addr, Verb: s.key.verb, Every: s.interval()})
		s.due = now.Add(p.jittered(s.interval(), s.jitter))
		heap.Fix(&p.queue, 0)
	}
	return reqs
}

func (p *Poller) untilNext() (time.Duration, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		return 0, false
	}
	if d := p.queue[0].due.Sub(p.now()); d > 0 {
		return d, true
	}
	return 0, true
}

func (p *Poller) wakeup() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// jittered returns interval plus a random extra in [0, jitter].
// Callers hold mu; rng is not safe for concurrent use.
func (p *Poller) jittered(interval, jitter time.Duration) time.Duration {
	if jitter <= 0 {
		return interval
	}
	return interval + time.Duration(p.rng.Int63n(int64(jitter)+1))
}
