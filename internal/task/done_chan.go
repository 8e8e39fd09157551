// Package task provides small scheduling primitives shared by the worker
// and supervisor lifecycles: a closable completion signal and an
// interruptible sleep.
package task

// DoneChan is closed exactly once, when the work it represents has
// finished.
type DoneChan chan struct{}

// DoneFunc initiates shutdown of some component and returns a channel
// that closes once the shutdown has completed.
type DoneFunc func() DoneChan

// CombineAll returns a DoneChan that closes once every channel in dcs
// has closed. An empty dcs closes immediately.
func CombineAll(dcs ...DoneChan) DoneChan {
	ret := make(DoneChan)
	go func() {
		for _, dc := range dcs {
			<-dc
		}
		close(ret)
	}()
	return ret
}
