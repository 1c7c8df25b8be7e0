package fetch

import (
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// RateLimiter manages request timing per host for politeness
type RateLimiter struct {
	hostLastRequest   map[string]time.Time // hostname -> last request attempt time
	hostLastRequestMu sync.Mutex           // Protects hostLastRequest map
	minDelay          time.Duration        // Minimum gap between requests to one host
	log               *logrus.Logger
}

// NewRateLimiter creates a RateLimiter. A non-positive minDelay disables it.
func NewRateLimiter(minDelay time.Duration, log *logrus.Logger) *RateLimiter {
	return &RateLimiter{
		hostLastRequest: make(map[string]time.Time),
		minDelay:        minDelay,
		log:             log,
	}
}

// ApplyDelay sleeps if the time since the last request to the host is less
// than the configured delay. Includes jitter (+/- 10%) to desynchronize
// requests.
func (rl *RateLimiter) ApplyDelay(host string) {
	if rl.minDelay <= 0 {
		return
	}

	rl.hostLastRequestMu.Lock()
	lastReqTime, exists := rl.hostLastRequest[host]
	rl.hostLastRequestMu.Unlock() // Unlock before potentially sleeping

	if !exists {
		return
	}

	elapsed := time.Since(lastReqTime)
	if elapsed >= rl.minDelay {
		return
	}
	sleepDuration := rl.minDelay - elapsed

	// Jitter: +/- 10% of the remaining sleep
	var jitter time.Duration
	jitterRange := int64(sleepDuration) / 5
	if jitterRange > 0 { // Avoid Int63n(0)
		jitter = time.Duration(rand.Int63n(jitterRange)) - (sleepDuration / 10)
	}
	finalSleep := sleepDuration + jitter
	if finalSleep <= 0 {
		return
	}

	rl.log.WithFields(logrus.Fields{
		"host": host, "sleep": finalSleep, "required_delay": rl.minDelay, "elapsed": elapsed,
	}).Debug("Rate limit applying sleep")
	time.Sleep(finalSleep)
}

// UpdateLastRequestTime records the current time as the last request attempt
// time for the host. Call this after an HTTP request attempt to the host.
func (rl *RateLimiter) UpdateLastRequestTime(host string) {
	rl.hostLastRequestMu.Lock()
	rl.hostLastRequest[host] = time.Now()
	rl.hostLastRequestMu.Unlock()
}
