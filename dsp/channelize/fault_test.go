package channelize

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-filterbank/dsp/engine"
)

var errInjected = errors.New("injected device fault")

// faultyContext wraps a host context, failing selected operations and
// remembering everything it handed out so teardown can be checked.
type faultyContext struct {
	engine.Context

	failBuffer  int // 1-based NewBuffer call that fails, 0 for none
	failPlan    bool
	failExecute bool

	buffers []engine.Buffer
	queues  []engine.Queue
	plans   []*faultyPlan
	closed  bool
}

func newFaultyContext(t *testing.T) *faultyContext {
	t.Helper()
	ctx, err := engine.Open("algofft", 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return &faultyContext{Context: ctx}
}

func (c *faultyContext) NewBuffer(n int) (engine.Buffer, error) {
	if c.failBuffer == len(c.buffers)+1 {
		return nil, errInjected
	}
	b, err := c.Context.NewBuffer(n)
	if err == nil {
		c.buffers = append(c.buffers, b)
	}
	return b, err
}

func (c *faultyContext) NewQueue() (engine.Queue, error) {
	q, err := c.Context.NewQueue()
	if err == nil {
		c.queues = append(c.queues, q)
	}
	return q, err
}

func (c *faultyContext) NewPlan(spec engine.PlanSpec, q engine.Queue) (engine.Plan, error) {
	if c.failPlan {
		return nil, errInjected
	}
	p, err := c.Context.NewPlan(spec, q)
	if err != nil {
		return nil, err
	}
	fp := &faultyPlan{Plan: p, fail: c.failExecute}
	c.plans = append(c.plans, fp)
	return fp, nil
}

func (c *faultyContext) Close() error {
	c.closed = true
	return c.Context.Close()
}

// requireReleased fails t if any buffer, queue or plan is still live.
func (c *faultyContext) requireReleased(t *testing.T) {
	t.Helper()
	for i, b := range c.buffers {
		if err := b.Upload(nil); !errors.Is(err, engine.ErrClosed) {
			t.Fatalf("buffer %d not released", i)
		}
	}
	for i, q := range c.queues {
		if err := q.Finish(); !errors.Is(err, engine.ErrClosed) {
			t.Fatalf("queue %d not released", i)
		}
	}
	for i, p := range c.plans {
		if !p.closed {
			t.Fatalf("plan %d not released", i)
		}
	}
}

type faultyPlan struct {
	engine.Plan
	fail   bool
	closed bool
}

func (p *faultyPlan) Execute(in []engine.Buffer, out engine.Buffer) error {
	if p.fail {
		return errInjected
	}
	return p.Plan.Execute(in, out)
}

func (p *faultyPlan) Close() error {
	p.closed = true
	return p.Plan.Close()
}
