package ledger

import "time"

// SetSleep replaces the client's backoff sleeper so tests can observe wait
// durations without actually waiting.
func (c *Client) SetSleep(fn func(time.Duration)) {
	c.sleep = fn
}
