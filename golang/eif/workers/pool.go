package workers

import (
	"context"
	"runtime"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

//Pool runs independent jobs on at most threads goroutines.
//It satisfies eifl.Scheduler so that forests can grow and score trees in parallel.
type Pool struct {
	threads int
}

//NewPool creates a pool of threadsNum workers, one per CPU when threadsNum < 1.
func NewPool(threadsNum int) *Pool {
	if threadsNum < 1 {
		threadsNum = runtime.NumCPU()
	}
	return &Pool{threads: threadsNum}
}

//Threads returns the number of workers.
func (pool *Pool) Threads() int {
	return pool.threads
}

//Run calls job for every i in [0, n) and waits for all of them.
//Jobs that were not started yet are skipped after the first failure, whose error is returned.
func (pool *Pool) Run(n int, job func(i int) error) error {
	eg, ctx := errgroup.WithContext(context.Background())
	eg.SetLimit(pool.threads)

	for i := 0; i < n; i++ {
		i := i
		eg.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			return job(i)
		})
	}

	if err := eg.Wait(); err != nil {
		log.WithError(err).Debugf("pool of %d workers stopped", pool.threads)
		return err
	}
	return nil
}
