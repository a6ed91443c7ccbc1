package discovery

import (
	"time"

	"github.com/gdugdh24/ethospair-backend/internal/domain"
)

const DefaultDecisionWindow = 15 * time.Second

// Carousel walks a candidate list one profile at a time. The index wraps
// modulo the list length, and each profile gets a fixed decision window
// after which Tick skips it. Skips are not persisted. A Carousel is not
// safe for concurrent use.
type Carousel struct {
	profiles []*domain.Profile
	index    int
	window   time.Duration
	deadline time.Time
	skipped  int
}

func NewCarousel(profiles []*domain.Profile, window time.Duration, now time.Time) *Carousel {
	if window <= 0 {
		window = DefaultDecisionWindow
	}
	return &Carousel{
		profiles: profiles,
		window:   window,
		deadline: now.Add(window),
	}
}

func (c *Carousel) Len() int { return len(c.profiles) }

func (c *Carousel) Index() int { return c.index }

func (c *Carousel) Skipped() int { return c.skipped }

func (c *Carousel) Current() (*domain.Profile, bool) {
	if len(c.profiles) == 0 {
		return nil, false
	}
	return c.profiles[c.index], true
}

// Next moves to the following profile and restarts the decision window.
func (c *Carousel) Next(now time.Time) {
	if len(c.profiles) == 0 {
		return
	}
	c.index = (c.index + 1) % len(c.profiles)
	c.deadline = now.Add(c.window)
}

// Skip passes on the current profile and returns it.
func (c *Carousel) Skip(now time.Time) (*domain.Profile, bool) {
	current, ok := c.Current()
	if !ok {
		return nil, false
	}
	c.skipped++
	c.Next(now)
	return current, true
}

func (c *Carousel) Remaining(now time.Time) time.Duration {
	if left := c.deadline.Sub(now); left > 0 {
		return left
	}
	return 0
}

func (c *Carousel) Expired(now time.Time) bool {
	return len(c.profiles) > 0 && !now.Before(c.deadline)
}

// Tick skips the current profile if its window has run out and reports
// whether it did.
func (c *Carousel) Tick(now time.Time) bool {
	if !c.Expired(now) {
		return false
	}
	_, ok := c.Skip(now)
	return ok
}

// Remove drops a profile from the rotation, e.g. after a request was sent.
// The index stays on the profile that followed it.
func (c *Carousel) Remove(address string, now time.Time) {
	for i, p := range c.profiles {
		if p.Address != address {
			continue
		}
		c.profiles = append(c.profiles[:i:i], c.profiles[i+1:]...)
		switch {
		case len(c.profiles) == 0:
			c.index = 0
		case i < c.index:
			c.index--
		case c.index >= len(c.profiles):
			c.index = 0
		}
		c.deadline = now.Add(c.window)
		return
	}
}
