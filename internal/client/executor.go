package client

import "github.com/panjf2000/ants/v2"

// Executor runs worker loops on some concurrency substrate. The scatter
// contract (bounded worker count, isolated failures, completion-order
// merge) holds for any implementation.
type Executor interface {
	// Go schedules one task for execution.
	Go(task func()) error

	// Release frees substrate resources once all tasks have returned.
	Release()
}

// poolExecutor backs workers with a bounded ants goroutine pool.
type poolExecutor struct {
	pool *ants.Pool
}

func newPoolExecutor(size int) (*poolExecutor, error) {
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}
	return &poolExecutor{pool: pool}, nil
}

func (e *poolExecutor) Go(task func()) error { return e.pool.Submit(task) }

func (e *poolExecutor) Release() { e.pool.Release() }

// goExecutor runs tasks on plain goroutines. It is the fallback when pool
// creation fails and the substrate of choice in tests.
type goExecutor struct{}

func (goExecutor) Go(task func()) error {
	go task()
	return nil
}

func (goExecutor) Release() {}
