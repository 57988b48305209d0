package eifl

//Scheduler runs n independent jobs and returns the first error met.
//Jobs never share mutable state, so implementations may run them in any order or in parallel.
type Scheduler interface {
	Run(n int, job func(i int) error) error
}

//Sequential runs jobs one after another on the calling goroutine.
type Sequential struct{}

func (Sequential) Run(n int, job func(i int) error) error {
	for i := 0; i < n; i++ {
		if err := job(i); err != nil {
			return err
		}
	}
	return nil
}
