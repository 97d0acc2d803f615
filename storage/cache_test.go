package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/JONIJAIN/bms/domain"
)

type stubBackend struct {
	companyFn           func(ctx context.Context, id string) (domain.Company, error)
	capturedToProcessFn func(ctx context.Context, companyID string) ([]domain.CapturedTask, error)
	weekScheduleFn      func(ctx context.Context, companyID, weekStart string) ([]domain.ScheduledTask, error)
	settingFn           func(ctx context.Context, key string) (string, error)
	insertCapturedFn    func(ctx context.Context, t domain.CapturedTask) error
	markCapturedFn      func(ctx context.Context, id, status string) error
	insertScheduledFn   func(ctx context.Context, t domain.ScheduledTask) error
	saveScheduledFn     func(ctx context.Context, t domain.ScheduledTask) error
	saveCompanyFn       func(ctx context.Context, c domain.Company) error
	setSettingFn        func(ctx context.Context, key, value string) error
}

func (s *stubBackend) CapturedToProcess(ctx context.Context, companyID string) ([]domain.CapturedTask, error) {
	if s.capturedToProcessFn == nil {
		return nil, errors.New("unexpected CapturedToProcess call")
	}
	return s.capturedToProcessFn(ctx, companyID)
}

func (s *stubBackend) InsertCaptured(ctx context.Context, t domain.CapturedTask) error {
	if s.insertCapturedFn == nil {
		return errors.New("unexpected InsertCaptured call")
	}
	return s.insertCapturedFn(ctx, t)
}

func (s *stubBackend) MarkCapturedMoved(ctx context.Context, id, status string) error {
	if s.markCapturedFn == nil {
		return errors.New("unexpected MarkCapturedMoved call")
	}
	return s.markCapturedFn(ctx, id, status)
}

func (s *stubBackend) Company(ctx context.Context, id string) (domain.Company, error) {
	if s.companyFn == nil {
		return domain.Company{}, errors.New("unexpected Company call")
	}
	return s.companyFn(ctx, id)
}

func (s *stubBackend) WeekSchedule(ctx context.Context, companyID, weekStart string) ([]domain.ScheduledTask, error) {
	if s.weekScheduleFn == nil {
		return nil, errors.New("unexpected WeekSchedule call")
	}
	return s.weekScheduleFn(ctx, companyID, weekStart)
}

func (s *stubBackend) Setting(ctx context.Context, key string) (string, error) {
	if s.settingFn == nil {
		return "", errors.New("unexpected Setting call")
	}
	return s.settingFn(ctx, key)
}

func (s *stubBackend) InsertScheduled(ctx context.Context, t domain.ScheduledTask) error {
	if s.insertScheduledFn == nil {
		return errors.New("unexpected InsertScheduled call")
	}
	return s.insertScheduledFn(ctx, t)
}

func (s *stubBackend) SaveScheduled(ctx context.Context, t domain.ScheduledTask) error {
	if s.saveScheduledFn == nil {
		return errors.New("unexpected SaveScheduled call")
	}
	return s.saveScheduledFn(ctx, t)
}

func (s *stubBackend) SaveCompany(ctx context.Context, c domain.Company) error {
	if s.saveCompanyFn == nil {
		return errors.New("unexpected SaveCompany call")
	}
	return s.saveCompanyFn(ctx, c)
}

func (s *stubBackend) SetSetting(ctx context.Context, key, value string) error {
	if s.setSettingFn == nil {
		return errors.New("unexpected SetSetting call")
	}
	return s.setSettingFn(ctx, key, value)
}

func newCacheHarness(t *testing.T, base backend) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewCache(base, client, time.Minute), mr
}

func TestCacheCompanyMissThenHit(t *testing.T) {
	ctx := context.Background()
	expected := domain.Company{ID: "c1", Name: "Acme", AnnualTurnover: 10000000, MVOT: 4348}

	var calls int
	cache, mr := newCacheHarness(t, &stubBackend{
		companyFn: func(ctx context.Context, id string) (domain.Company, error) {
			calls++
			if id != expected.ID {
				t.Fatalf("unexpected company id: %s", id)
			}
			return expected, nil
		},
	})

	got, err := cache.Company(ctx, expected.ID)
	if err != nil {
		t.Fatalf("fetch company: %v", err)
	}
	if got != expected {
		t.Fatalf("unexpected company: %#v", got)
	}
	if ttl := mr.TTL(companyCacheKey(expected.ID)); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected TTL: %v", ttl)
	}

	cached, err := cache.Company(ctx, expected.ID)
	if err != nil {
		t.Fatalf("fetch cached company: %v", err)
	}
	if cached != expected {
		t.Fatalf("unexpected cached company: %#v", cached)
	}
	if calls != 1 {
		t.Fatalf("expected cached fetch to avoid backend, calls=%d", calls)
	}
}

func TestCacheWeekScheduleEvictedOnWrite(t *testing.T) {
	ctx := context.Background()
	companyID := "c1"
	weekStart := "2026-08-24"
	initial := []domain.ScheduledTask{{ID: "s1", CompanyID: companyID, Date: "2026-08-25", Name: "Tuesday Magic"}}
	updated := append(initial, domain.ScheduledTask{ID: "s2", CompanyID: companyID, Date: "2026-08-28", Name: "Email Batch"})

	responses := [][]domain.ScheduledTask{initial, updated}
	var fetchCalls int
	cache, mr := newCacheHarness(t, &stubBackend{
		weekScheduleFn: func(context.Context, string, string) ([]domain.ScheduledTask, error) {
			res := responses[fetchCalls]
			if fetchCalls < len(responses)-1 {
				fetchCalls++
			}
			return append([]domain.ScheduledTask(nil), res...), nil
		},
		insertScheduledFn: func(context.Context, domain.ScheduledTask) error { return nil },
	})

	first, err := cache.WeekSchedule(ctx, companyID, weekStart)
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if !reflect.DeepEqual(first, initial) {
		t.Fatalf("unexpected first schedule: %#v", first)
	}
	if !mr.Exists(scheduleCacheKey(companyID, weekStart)) {
		t.Fatalf("expected schedule cached after fetch")
	}

	if err := cache.InsertScheduled(ctx, updated[1]); err != nil {
		t.Fatalf("insert scheduled: %v", err)
	}
	if mr.Exists(scheduleCacheKey(companyID, weekStart)) {
		t.Fatalf("schedule cache should be evicted after insert")
	}

	second, err := cache.WeekSchedule(ctx, companyID, weekStart)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if !reflect.DeepEqual(second, updated) {
		t.Fatalf("unexpected refreshed schedule: %#v", second)
	}
}

func TestCacheSettingEvictedOnWrite(t *testing.T) {
	ctx := context.Background()
	key := domain.SettingTuesdayMagicTime
	values := []string{"08:00-12:00", "07:00-11:00"}

	var fetchCalls int
	cache, mr := newCacheHarness(t, &stubBackend{
		settingFn: func(context.Context, string) (string, error) {
			v := values[fetchCalls]
			if fetchCalls < len(values)-1 {
				fetchCalls++
			}
			return v, nil
		},
		setSettingFn: func(context.Context, string, string) error { return nil },
	})

	if v, err := cache.Setting(ctx, key); err != nil || v != "08:00-12:00" {
		t.Fatalf("first setting fetch: %q %v", v, err)
	}
	if !mr.Exists(settingCacheKey(key)) {
		t.Fatalf("expected setting cached")
	}

	if err := cache.SetSetting(ctx, key, "07:00-11:00"); err != nil {
		t.Fatalf("set setting: %v", err)
	}
	if mr.Exists(settingCacheKey(key)) {
		t.Fatalf("setting cache should be evicted after write")
	}

	if v, err := cache.Setting(ctx, key); err != nil || v != "07:00-11:00" {
		t.Fatalf("refreshed setting fetch: %q %v", v, err)
	}
}

func TestCacheCapturedToProcessEvictedOnMove(t *testing.T) {
	ctx := context.Background()
	companyID := "c1"
	pending := []domain.CapturedTask{{ID: "t1", CompanyID: companyID, Name: "Call supplier", Status: "To Process"}}

	var fetchCalls int
	cache, mr := newCacheHarness(t, &stubBackend{
		capturedToProcessFn: func(context.Context, string) ([]domain.CapturedTask, error) {
			fetchCalls++
			return append([]domain.CapturedTask(nil), pending...), nil
		},
		markCapturedFn: func(context.Context, string, string) error { return nil },
	})

	first, err := cache.CapturedToProcess(ctx, companyID)
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if !reflect.DeepEqual(first, pending) {
		t.Fatalf("unexpected pending tasks: %#v", first)
	}
	if !mr.Exists(capturesCacheKey(companyID)) {
		t.Fatalf("expected pending list cached")
	}

	if err := cache.MarkCapturedMoved(ctx, "t1", "Moved to Schedule"); err != nil {
		t.Fatalf("mark moved: %v", err)
	}
	if mr.Exists(capturesCacheKey(companyID)) {
		t.Fatalf("pending list should be evicted after move")
	}

	if _, err := cache.CapturedToProcess(ctx, companyID); err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if fetchCalls != 2 {
		t.Fatalf("expected backend refetch after eviction, calls=%d", fetchCalls)
	}
}

func TestCacheSaveCompanyErrorPreservesCache(t *testing.T) {
	ctx := context.Background()
	company := domain.Company{ID: "c1", Name: "Acme"}

	cache, mr := newCacheHarness(t, &stubBackend{
		companyFn: func(context.Context, string) (domain.Company, error) {
			return company, nil
		},
		saveCompanyFn: func(context.Context, domain.Company) error {
			return errors.New("boom")
		},
	})

	if _, err := cache.Company(ctx, company.ID); err != nil {
		t.Fatalf("prime cache: %v", err)
	}
	if err := cache.SaveCompany(ctx, company); err == nil {
		t.Fatalf("expected save error")
	}
	if !mr.Exists(companyCacheKey(company.ID)) {
		t.Fatalf("company cache should remain on error")
	}
}

func TestCacheWithoutRedisPassesThrough(t *testing.T) {
	ctx := context.Background()
	expected := domain.Company{ID: "c1", Name: "Acme"}

	var calls int
	cache := NewCache(&stubBackend{
		companyFn: func(context.Context, string) (domain.Company, error) {
			calls++
			return expected, nil
		},
	}, nil, time.Minute)

	for i := 0; i < 2; i++ {
		got, err := cache.Company(ctx, expected.ID)
		if err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
		if got != expected {
			t.Fatalf("unexpected company: %#v", got)
		}
	}
	if calls != 2 {
		t.Fatalf("expected passthrough on every call, calls=%d", calls)
	}
}
