package views

import (
	"time"

	"golang.org/x/time/rate"
)

// ResendInterval is the minimum gap between two OTP emails.
const ResendInterval = 60 * time.Second

// resendThrottle allows one send per ResendInterval. A send only counts once
// it succeeded.
type resendThrottle struct {
	limiter *rate.Limiter
	now     func() time.Time
}

// claim is a reserved send.
type claim struct {
	r  *rate.Reservation
	at time.Time
}

func newResendThrottle() *resendThrottle {
	return &resendThrottle{
		limiter: rate.NewLimiter(rate.Every(ResendInterval), 1),
		now:     time.Now,
	}
}

// reserve claims the next send, or reports how long until one is allowed.
func (t *resendThrottle) reserve() (*claim, time.Duration) {
	now := t.now()
	r := t.limiter.ReserveN(now, 1)
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return nil, d
	}
	return &claim{r: r, at: now}, 0
}

// release gives back a claim whose send failed. Cancelling at the claim's own
// time restores the token.
func (t *resendThrottle) release(c *claim) {
	c.r.CancelAt(c.at)
}

// wait is the time until the next send is allowed.
func (t *resendThrottle) wait() time.Duration {
	now := t.now()
	if t.limiter.TokensAt(now) >= 1 {
		return 0
	}
	r := t.limiter.ReserveN(now, 1)
	d := r.DelayFrom(now)
	r.CancelAt(now)
	return d
}
