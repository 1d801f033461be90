package poller

import "time"

func (p *Poller) NextWait(interval time.Duration) time.Duration {
	return p.nextWait(interval)
}
