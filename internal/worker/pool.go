// Package worker runs a leaky text-generation backend behind a small set of
// long-lived slots. Each slot loads the backend once, serves a bounded number
// of tasks and then throws the backend away, so memory the backend leaks is
// returned before it can pile up.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultSize     = 1
	DefaultMaxTasks = 8
)

var (
	ErrWorkerUnavailable = errors.New("worker unavailable")
	ErrClosed            = errors.New("worker pool closed")
)

// Backend is one loaded instance of the generator.
type Backend interface {
	Generate(ctx context.Context, prefix string, length int) (string, error)
	Close() error
}

// Loader loads a fresh backend. It is called once per slot lifetime.
type Loader func(ctx context.Context) (Backend, error)

type State int

const (
	StateUninitialized State = iota
	StateReady
	StateBusy
	StateRetiring
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateBusy:
		return "busy"
	case StateRetiring:
		return "retiring"
	}
	return "unknown"
}

// SlotInfo describes a slot. Generation counts the backends the slot has
// loaded so far.
type SlotInfo struct {
	ID         int
	State      State
	Served     int
	Generation int
}

type task struct {
	prefix string
	length int
	result chan result
}

type result struct {
	text string
	err  error
}

type Pool struct {
	load     Loader
	maxTasks int

	tasks     chan task
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	mu    sync.Mutex
	slots []SlotInfo
}

// New starts size slots. Non-positive values select the defaults.
func New(load Loader, size, maxTasks int) *Pool {
	if size < 1 {
		size = DefaultSize
	}
	if maxTasks < 1 {
		maxTasks = DefaultMaxTasks
	}

	p := &Pool{
		load:     load,
		maxTasks: maxTasks,
		tasks:    make(chan task),
		done:     make(chan struct{}),
		slots:    make([]SlotInfo, size),
	}
	for i := range p.slots {
		p.slots[i].ID = i
		p.wg.Add(1)
		go p.run(i)
	}
	return p
}

// Generate hands the task to the next free slot and waits for its result.
// ctx bounds the wait only: a task a slot has accepted runs to completion.
func (p *Pool) Generate(ctx context.Context, prefix string, length int) (string, error) {
	t := task{prefix: prefix, length: length, result: make(chan result, 1)}

	select {
	case p.tasks <- t:
	case <-ctx.Done():
		return "", ctx.Err()
	case <-p.done:
		return "", ErrClosed
	}

	select {
	case r := <-t.result:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Slots returns a snapshot of every slot.
func (p *Pool) Slots() []SlotInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]SlotInfo(nil), p.slots...)
}

// Close stops the slots and releases their backends. In-flight tasks finish
// first.
func (p *Pool) Close() error {
	p.closeOnce.Do(func() { close(p.done) })
	p.wg.Wait()
	return nil
}

type slot struct {
	id      int
	backend Backend
	served  int
}

func (p *Pool) run(id int) {
	defer p.wg.Done()
	s := &slot{id: id}
	defer p.retire(s)

	for {
		select {
		case <-p.done:
			return
		case t := <-p.tasks:
			t.result <- p.serve(s, t)
			if s.backend != nil && s.served >= p.maxTasks {
				p.retire(s)
			}
		}
	}
}

func (p *Pool) serve(s *slot, t task) result {
	if s.backend == nil {
		backend, err := p.load(context.Background())
		if err != nil {
			log.WithError(err).WithField("slot", s.id).Errorln("cant load backend")
			return result{err: fmt.Errorf("%w: load: %v", ErrWorkerUnavailable, err)}
		}
		s.backend = backend
		s.served = 0
		p.update(s.id, func(info *SlotInfo) {
			info.State = StateReady
			info.Served = 0
			info.Generation++
		})
		log.WithField("slot", s.id).Debugln("backend loaded")
	}

	p.update(s.id, func(info *SlotInfo) { info.State = StateBusy })
	text, err := s.backend.Generate(context.Background(), t.prefix, t.length)
	s.served++
	p.update(s.id, func(info *SlotInfo) {
		info.State = StateReady
		info.Served = s.served
	})

	if err != nil {
		log.WithError(err).WithField("slot", s.id).Errorln("backend failed, retiring slot")
		p.retire(s)
		return result{err: fmt.Errorf("%w: %v", ErrWorkerUnavailable, err)}
	}
	return result{text: text}
}

func (p *Pool) retire(s *slot) {
	if s.backend == nil {
		return
	}
	p.update(s.id, func(info *SlotInfo) { info.State = StateRetiring })
	if err := s.backend.Close(); err != nil {
		log.WithError(err).WithField("slot", s.id).Warnln("cant close backend")
	}
	log.WithField("slot", s.id).WithField("served", s.served).Debugln("slot retired")
	s.backend = nil
	s.served = 0
	p.update(s.id, func(info *SlotInfo) {
		info.State = StateUninitialized
		info.Served = 0
	})
}

func (p *Pool) update(id int, fn func(*SlotInfo)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.slots[id])
}
