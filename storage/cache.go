package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JONIJAIN/bms/domain"
)

type backend interface {
	Company(ctx context.Context, id string) (domain.Company, error)
	CapturedToProcess(ctx context.Context, companyID string) ([]domain.CapturedTask, error)
	WeekSchedule(ctx context.Context, companyID, weekStart string) ([]domain.ScheduledTask, error)
	Setting(ctx context.Context, key string) (string, error)
	InsertCaptured(ctx context.Context, t domain.CapturedTask) error
	MarkCapturedMoved(ctx context.Context, id, status string) error
	InsertScheduled(ctx context.Context, t domain.ScheduledTask) error
	SaveScheduled(ctx context.Context, t domain.ScheduledTask) error
	SaveCompany(ctx context.Context, c domain.Company) error
	SetSetting(ctx context.Context, key, value string) error
}

// Cache wraps a Storage instance with Redis-backed caching for the hot
// read paths. Writes that touch a cached value evict it.
type Cache struct {
	*Storage
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching Storage wrapper using the provided Redis client and TTL.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}

	c := &Cache{
		base:  base,
		redis: client,
		ttl:   ttl,
	}
	if s, ok := base.(*Storage); ok {
		c.Storage = s
	}
	return c
}

func (c *Cache) Company(ctx context.Context, id string) (domain.Company, error) {
	if company, ok := c.loadCompanyFromCache(ctx, id); ok {
		return company, nil
	}

	company, err := c.base.Company(ctx, id)
	if err != nil {
		return domain.Company{}, err
	}

	c.storeJSON(ctx, companyCacheKey(id), company)
	return company, nil
}

func (c *Cache) CapturedToProcess(ctx context.Context, companyID string) ([]domain.CapturedTask, error) {
	if tasks, ok := c.loadCapturesFromCache(ctx, companyID); ok {
		return tasks, nil
	}

	tasks, err := c.base.CapturedToProcess(ctx, companyID)
	if err != nil {
		return nil, err
	}

	c.storeJSON(ctx, capturesCacheKey(companyID), tasks)
	return tasks, nil
}

func (c *Cache) InsertCaptured(ctx context.Context, t domain.CapturedTask) error {
	if err := c.base.InsertCaptured(ctx, t); err != nil {
		return err
	}
	c.evict(ctx, capturesCacheKey(t.CompanyID))
	return nil
}

// MarkCapturedMoved only knows the row key, so every company's pending list
// is dropped.
func (c *Cache) MarkCapturedMoved(ctx context.Context, id, status string) error {
	if err := c.base.MarkCapturedMoved(ctx, id, status); err != nil {
		return err
	}
	c.evictPrefix(ctx, "captures:")
	return nil
}

func (c *Cache) WeekSchedule(ctx context.Context, companyID, weekStart string) ([]domain.ScheduledTask, error) {
	if tasks, ok := c.loadScheduleFromCache(ctx, companyID, weekStart); ok {
		return tasks, nil
	}

	tasks, err := c.base.WeekSchedule(ctx, companyID, weekStart)
	if err != nil {
		return nil, err
	}

	c.storeJSON(ctx, scheduleCacheKey(companyID, weekStart), tasks)
	return tasks, nil
}

func (c *Cache) Setting(ctx context.Context, key string) (string, error) {
	if value, ok := c.loadSettingFromCache(ctx, key); ok {
		return value, nil
	}

	value, err := c.base.Setting(ctx, key)
	if err != nil {
		return "", err
	}

	c.storeJSON(ctx, settingCacheKey(key), value)
	return value, nil
}

func (c *Cache) InsertScheduled(ctx context.Context, t domain.ScheduledTask) error {
	if err := c.base.InsertScheduled(ctx, t); err != nil {
		return err
	}
	c.evictSchedule(ctx, t.CompanyID)
	return nil
}

func (c *Cache) SaveScheduled(ctx context.Context, t domain.ScheduledTask) error {
	if err := c.base.SaveScheduled(ctx, t); err != nil {
		return err
	}
	c.evictSchedule(ctx, t.CompanyID)
	return nil
}

func (c *Cache) SaveCompany(ctx context.Context, company domain.Company) error {
	if err := c.base.SaveCompany(ctx, company); err != nil {
		return err
	}
	c.evict(ctx, companyCacheKey(company.ID))
	return nil
}

func (c *Cache) SetSetting(ctx context.Context, key, value string) error {
	if err := c.base.SetSetting(ctx, key, value); err != nil {
		return err
	}
	c.evict(ctx, settingCacheKey(key))
	return nil
}

func (c *Cache) loadCompanyFromCache(ctx context.Context, id string) (domain.Company, bool) {
	var company domain.Company
	if !c.loadJSON(ctx, companyCacheKey(id), &company) {
		return domain.Company{}, false
	}
	return company, true
}

func (c *Cache) loadCapturesFromCache(ctx context.Context, companyID string) ([]domain.CapturedTask, bool) {
	var tasks []domain.CapturedTask
	if !c.loadJSON(ctx, capturesCacheKey(companyID), &tasks) {
		return nil, false
	}
	return tasks, true
}

func (c *Cache) loadScheduleFromCache(ctx context.Context, companyID, weekStart string) ([]domain.ScheduledTask, bool) {
	var tasks []domain.ScheduledTask
	if !c.loadJSON(ctx, scheduleCacheKey(companyID, weekStart), &tasks) {
		return nil, false
	}
	return tasks, true
}

func (c *Cache) loadSettingFromCache(ctx context.Context, key string) (string, bool) {
	var value string
	if !c.loadJSON(ctx, settingCacheKey(key), &value) {
		return "", false
	}
	return value, true
}

func (c *Cache) loadJSON(ctx context.Context, key string, v any) bool {
	if c.redis == nil {
		return false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, key).Err()
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return false
	}
	return true
}

func (c *Cache) storeJSON(ctx context.Context, key string, v any) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, keys ...string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, keys...).Result()
}

// evictSchedule drops every cached week of the company. Schedule writes
// carry a date, not a week start, so the whole prefix goes.
func (c *Cache) evictSchedule(ctx context.Context, companyID string) {
	c.evictPrefix(ctx, "schedule:"+companyID+":")
}

func (c *Cache) evictPrefix(ctx context.Context, prefix string) {
	if c.redis == nil {
		return
	}
	iter := c.redis.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		_ = c.redis.Del(ctx, iter.Val()).Err()
	}
}

func companyCacheKey(id string) string {
	return "company:" + id
}

func capturesCacheKey(companyID string) string {
	return "captures:" + companyID
}

func scheduleCacheKey(companyID, weekStart string) string {
	return "schedule:" + companyID + ":" + weekStart
}

func settingCacheKey(key string) string {
	return "setting:" + key
}
