package client

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dreamware/gander/internal/monitor"
	"github.com/dreamware/gander/internal/result"
)

// workItem is one unit of queued work: a node task, or a stop signal telling
// the worker that pulls it to acknowledge and exit. Exactly one stop item is
// queued per worker.
type workItem struct {
	stop bool
	node monitor.Node
}

// workResult travels back on the return channel: one node's outcome, or a
// stop acknowledgement counted by the gather loop.
type workResult struct {
	stopAck bool
	node    string
	data    string
	errMsg  string
}

// scatter fans the rendered query text out to every monitor through a
// bounded worker pool and merges outcomes into rs as they complete.
func (c *Client) scatter(text string, rs *result.ResultSet) {
	monitors := c.monitors
	if len(monitors) == 0 {
		return
	}
	w := c.workerCount(len(monitors))

	// Buffered so neither side can wedge on a slow counterpart: the queue
	// holds every task and every stop item, the return channel every
	// outcome and every ack.
	queue := make(chan workItem, len(monitors)+w)
	results := make(chan workResult, len(monitors)+w)

	for _, m := range monitors {
		queue <- workItem{node: m}
	}
	for i := 0; i < w; i++ {
		queue <- workItem{stop: true}
	}
	close(queue)

	exec := c.newExecutor(w)
	defer exec.Release()

	var wg sync.WaitGroup
	run := func() {
		defer wg.Done()
		worker(queue, results, text)
	}
	for i := 0; i < w; i++ {
		wg.Add(1)
		if err := exec.Go(run); err != nil {
			// The pool refused the task; fall back to a plain goroutine
			// so the stop accounting still balances.
			go run()
		}
	}

	// Drain until every worker has acknowledged its stop item, then wait
	// for the workers themselves. This goroutine is the only writer to rs.
	acks := 0
	for acks < w {
		r := <-results
		if r.stopAck {
			acks++
			continue
		}
		if r.errMsg != "" {
			c.logger.Debug("node query failed", "node", r.node, "error", r.errMsg)
		}
		rs.Update(r.node, r.data, r.errMsg)
	}
	wg.Wait()
}

// newExecutor builds the worker substrate: an ants pool sized to the worker
// count, or plain goroutines if the pool cannot be created.
func (c *Client) newExecutor(size int) Executor {
	exec, err := newPoolExecutor(size)
	if err != nil {
		c.logger.Debug("worker pool unavailable, using goroutines", "error", err)
		return goExecutor{}
	}
	return exec
}

// workerCount resolves the effective worker count for n monitors: forced to
// one in serial mode, defaulted to n when unset, and never above n.
func (c *Client) workerCount(n int) int {
	if !c.parallel {
		return 1
	}
	w := c.workers
	if w <= 0 || w > n {
		w = n
	}
	return w
}

// worker pulls items until it drains its own stop item, running one node
// query per task. It exits only after sending its stop acknowledgement, so
// the gather loop's accounting stays exact.
func worker(queue <-chan workItem, results chan<- workResult, text string) {
	for item := range queue {
		if item.stop {
			results <- workResult{stopAck: true}
			return
		}
		results <- runOne(item.node, text)
	}
}

// runOne performs a single node attempt and classifies the outcome. A panic
// anywhere inside the attempt becomes that node's error string rather than
// propagating; one bad node must never take down the run.
func runOne(node monitor.Node, text string) (res workResult) {
	res.node = node.Name
	defer func() {
		if r := recover(); r != nil {
			res.data = ""
			res.errMsg = fmt.Sprintf("query worker panicked: %v", r)
		}
	}()

	data, status, _, err := node.RunQuery(text)
	switch {
	case err != nil:
		res.errMsg = err.Error()
	case strings.Trim(data, " \t\n") == "":
		// Status 200 with nothing in it is a semantic failure.
		res.errMsg = monitor.NewEmptyResultError(node).Error()
	case status != 200:
		res.errMsg = monitor.NewStatusError(node, status, data).Error()
	default:
		res.data = data
	}
	return res
}
