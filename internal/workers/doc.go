/*
Package workers sizes and runs the background derivative-generation pool.

# Sizing

Count and ForCPU derive a worker count from GOMAXPROCS rather than
runtime.NumCPU, so a pod limited to 2 CPUs on a 64-core node gets 2
workers, not 64. Derivative generation is CPU bound, so the pool uses
ForCPU.

Set DERIVATIVE_WORKERS to pin the count:

	DERIVATIVE_WORKERS=4

# Pool

Pool runs submitted jobs on a fixed set of goroutines. Submit blocks when
the queue is full, which pushes back on uploads requesting background
generation instead of buffering decoded images without bound.

	pool := workers.NewPool(workers.ForCPU(8), 64)
	defer pool.Shutdown(ctx)

	err := pool.Submit(func(ctx context.Context) {
		// derive and write
	})

Shutdown drains the queue. Jobs still running when its context expires
have their context cancelled.
*/
package workers
