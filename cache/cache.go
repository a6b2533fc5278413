// Package cache keeps single leads in Redis in front of a LeadService.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	salescrm "github.com/phbpx/sales-crm"
	"github.com/phbpx/sales-crm/realtime"
)

const keyPrefix = "crm:lead:"

// A written lead's key holds tombstone for tombstoneTTL instead of being
// deleted. Reads treat it as a miss and refills use SETNX, so a reader that
// fetched the row before the write cannot put the old copy back.
const (
	tombstone    = "-"
	tombstoneTTL = 10 * time.Second
)

func leadKey(id string) string {
	return keyPrefix + id
}

// LeadCache is a read-through cache for LeadService.GetByID. Every write
// through it replaces the cached copy with a tombstone; writes made
// elsewhere are picked up by Invalidate. Redis failures are logged and the
// inner service answers.
type LeadCache struct {
	salescrm.LeadService
	rdb *redis.Client
	ttl time.Duration
	log *zap.SugaredLogger
}

func NewLeadCache(inner salescrm.LeadService, rdb *redis.Client, ttl time.Duration, log *zap.SugaredLogger) *LeadCache {
	return &LeadCache{
		LeadService: inner,
		rdb:         rdb,
		ttl:         ttl,
		log:         log,
	}
}

func (c *LeadCache) GetByID(ctx context.Context, id string) (salescrm.Lead, error) {
	var lead salescrm.Lead

	raw, err := c.rdb.Get(ctx, leadKey(id)).Bytes()
	switch {
	case err == nil && string(raw) == tombstone:
		return c.LeadService.GetByID(ctx, id)
	case err == nil:
		if err := json.Unmarshal(raw, &lead); err == nil {
			lead.Normalize()
			return lead, nil
		}
		c.log.Errorw("cache", "key", leadKey(id), "error", "undecodable entry")
		c.rdb.Del(ctx, leadKey(id))
	case err != redis.Nil:
		// returns err redis.Nil if key does not exist
		c.log.Errorw("cache", "key", leadKey(id), "error", err)
	}

	lead, err = c.LeadService.GetByID(ctx, id)
	if err != nil {
		return lead, err
	}

	c.set(ctx, lead)
	return lead, nil
}

func (c *LeadCache) set(ctx context.Context, lead salescrm.Lead) {
	raw, err := json.Marshal(lead)
	if err != nil {
		return
	}
	if err := c.rdb.SetNX(ctx, leadKey(lead.ID), raw, c.ttl).Err(); err != nil {
		c.log.Errorw("cache", "key", leadKey(lead.ID), "error", err)
	}
}

// Forget drops the cached copy of the lead.
func (c *LeadCache) Forget(ctx context.Context, id string) {
	if err := c.rdb.Set(ctx, leadKey(id), tombstone, tombstoneTTL).Err(); err != nil {
		c.log.Errorw("cache", "key", leadKey(id), "error", err)
	}
}

func (c *LeadCache) Update(ctx context.Context, lead salescrm.Lead) error {
	defer c.Forget(ctx, lead.ID)
	return c.LeadService.Update(ctx, lead)
}

func (c *LeadCache) UpdateStatus(ctx context.Context, id string, status salescrm.Status, actorID string) (salescrm.Lead, error) {
	defer c.Forget(ctx, id)
	return c.LeadService.UpdateStatus(ctx, id, status, actorID)
}

func (c *LeadCache) Assign(ctx context.Context, id string, assignee *string, actorID string) (salescrm.Lead, error) {
	defer c.Forget(ctx, id)
	return c.LeadService.Assign(ctx, id, assignee, actorID)
}

func (c *LeadCache) Touch(ctx context.Context, id string, at time.Time) error {
	defer c.Forget(ctx, id)
	return c.LeadService.Touch(ctx, id, at)
}

func (c *LeadCache) Delete(ctx context.Context, id string) error {
	defer c.Forget(ctx, id)
	return c.LeadService.Delete(ctx, id)
}

// Invalidate drops cached leads as change events for the leads table arrive,
// until ctx is done or the hub closes. A resync flushes every cached lead.
func (c *LeadCache) Invalidate(ctx context.Context, hub *realtime.Hub) {
	sub := hub.Subscribe(salescrm.TableLeads)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			if ev.Op == salescrm.OpResync {
				c.flush(ctx)
				continue
			}
			c.Forget(ctx, ev.ID)
		}
	}
}

func (c *LeadCache) flush(ctx context.Context) {
	iter := c.rdb.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			c.log.Errorw("cache", "key", iter.Val(), "error", err)
		}
	}
	if err := iter.Err(); err != nil {
		c.log.Errorw("cache", "status", "flush failed", "error", err)
	}
}
