package timer

import "time"

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type stdTicker struct {
	t *time.Ticker
}

func NewStdTicker(d time.Duration) Ticker {
	return stdTicker{t: time.NewTicker(d)}
}

func (s stdTicker) C() <-chan time.Time {
	return s.t.C
}

func (s stdTicker) Stop() {
	s.t.Stop()
}
