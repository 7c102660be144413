// Package state holds the in-memory bot registry and process table. Both
// collections are deliberately volatile (process lifetime only) and are
// NOT safe for concurrent use on their own: the supervisor guards them
// together behind a single lock so registry and table mutations are
// always observed as a consistent pair.
package state

import (
	"fmt"
	"strings"
	"time"

	"github.com/mverhage/bothive/internal/core/domain"
)

// Registry maps bot IDs to bot records and preserves insertion order for
// per-owner listings.
type Registry struct {
	bots     map[string]*domain.Bot
	order    []string
	quota    int
	lastUnix int64
}

func NewRegistry(quota int) *Registry {
	return &Registry{
		bots:  make(map[string]*domain.Bot),
		quota: quota,
	}
}

// GenerateID derives a fresh, URL-safe bot ID of the form
// {owner}_{name}_{unix_timestamp}. Rapid repeated calls within the same
// second bump the timestamp so IDs never collide.
func (r *Registry) GenerateID(owner, name string) string {
	ts := time.Now().Unix()
	if ts <= r.lastUnix {
		ts = r.lastUnix + 1
	}
	r.lastUnix = ts
	return fmt.Sprintf("%s_%s_%d", sanitize(owner), sanitize(name), ts)
}

// Create stores a new bot record, enforcing the per-owner quota. The quota
// is checked at creation time only.
func (r *Registry) Create(bot *domain.Bot) error {
	if r.countByOwner(bot.Owner) >= r.quota {
		return fmt.Errorf("%w: limit is %d bots per user", domain.ErrQuotaExceeded, r.quota)
	}
	if _, exists := r.bots[bot.ID]; exists {
		return fmt.Errorf("duplicate bot id %s", bot.ID)
	}
	r.bots[bot.ID] = bot
	r.order = append(r.order, bot.ID)
	return nil
}

func (r *Registry) Get(id string) (*domain.Bot, error) {
	bot, ok := r.bots[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return bot, nil
}

// ListByOwner returns the owner's bots in insertion order.
func (r *Registry) ListByOwner(owner string) []*domain.Bot {
	var out []*domain.Bot
	for _, id := range r.order {
		if bot := r.bots[id]; bot != nil && bot.Owner == owner {
			out = append(out, bot)
		}
	}
	return out
}

// Remove deletes a bot record. The caller must ensure no running process
// references the ID first.
func (r *Registry) Remove(id string) error {
	if _, ok := r.bots[id]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	delete(r.bots, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *Registry) countByOwner(owner string) int {
	n := 0
	for _, bot := range r.bots {
		if bot.Owner == owner {
			n++
		}
	}
	return n
}

// sanitize keeps IDs URL-safe and filesystem-safe: spaces become
// underscores, anything outside [A-Za-z0-9_-] is dropped.
func sanitize(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch {
		case c == ' ':
			b.WriteByte('_')
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
			b.WriteRune(c)
		}
	}
	return b.String()
}
