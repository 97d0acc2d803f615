package lifecycle

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/JONIJAIN/bms/domain"
)

type mockStore struct {
	companies map[string]domain.Company
	captured  map[string]domain.CapturedTask
	scheduled map[string]domain.ScheduledTask
	waiting   map[string]domain.WaitingItem
	someday   map[string]domain.SomedayItem
	entries   []domain.TimeEntry
	settings  map[string]string

	deletedCompanies []string
	hasData          bool
}

func newMockStore() *mockStore {
	return &mockStore{
		companies: map[string]domain.Company{},
		captured:  map[string]domain.CapturedTask{},
		scheduled: map[string]domain.ScheduledTask{},
		waiting:   map[string]domain.WaitingItem{},
		someday:   map[string]domain.SomedayItem{},
		settings:  map[string]string{},
	}
}

func (m *mockStore) Companies(ctx context.Context) ([]domain.Company, error) {
	out := []domain.Company{}
	for _, c := range m.companies {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockStore) Company(ctx context.Context, id string) (domain.Company, error) {
	c, ok := m.companies[id]
	if !ok {
		return domain.Company{}, &domain.NotFoundError{Entity: "company", ID: id}
	}
	return c, nil
}

func (m *mockStore) InsertCompany(ctx context.Context, c domain.Company) error {
	m.companies[c.ID] = c
	return nil
}

func (m *mockStore) SaveCompany(ctx context.Context, c domain.Company) error {
	m.companies[c.ID] = c
	return nil
}

func (m *mockStore) DeleteCompany(ctx context.Context, id string) error {
	delete(m.companies, id)
	m.deletedCompanies = append(m.deletedCompanies, id)
	return nil
}

func (m *mockStore) CompanyHasData(ctx context.Context, id string) (bool, error) {
	return m.hasData, nil
}

func (m *mockStore) InsertCaptured(ctx context.Context, t domain.CapturedTask) error {
	m.captured[t.ID] = t
	return nil
}

func (m *mockStore) CapturedTask(ctx context.Context, id string) (domain.CapturedTask, error) {
	t, ok := m.captured[id]
	if !ok {
		return domain.CapturedTask{}, &domain.NotFoundError{Entity: "captured task", ID: id}
	}
	return t, nil
}

func (m *mockStore) CapturedToProcess(ctx context.Context, companyID string) ([]domain.CapturedTask, error) {
	out := []domain.CapturedTask{}
	for _, t := range m.captured {
		if t.CompanyID == companyID && t.Status == domain.CaptureToProcess {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockStore) MarkCapturedMoved(ctx context.Context, id, status string) error {
	t, ok := m.captured[id]
	if !ok {
		return &domain.NotFoundError{Entity: "captured task", ID: id}
	}
	t.Status = status
	m.captured[id] = t
	return nil
}

func (m *mockStore) InsertScheduled(ctx context.Context, t domain.ScheduledTask) error {
	m.scheduled[t.ID] = t
	return nil
}

func (m *mockStore) ScheduledTask(ctx context.Context, id string) (domain.ScheduledTask, error) {
	t, ok := m.scheduled[id]
	if !ok {
		return domain.ScheduledTask{}, &domain.NotFoundError{Entity: "scheduled task", ID: id}
	}
	return t, nil
}

func (m *mockStore) SaveScheduled(ctx context.Context, t domain.ScheduledTask) error {
	m.scheduled[t.ID] = t
	return nil
}

func (m *mockStore) WeekSchedule(ctx context.Context, companyID, weekStart string) ([]domain.ScheduledTask, error) {
	out := []domain.ScheduledTask{}
	for _, t := range m.scheduled {
		if t.CompanyID == companyID && domain.InWeek(t.Date, weekStart) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockStore) InsertWaiting(ctx context.Context, w domain.WaitingItem) error {
	m.waiting[w.ID] = w
	return nil
}

func (m *mockStore) WaitingItem(ctx context.Context, id string) (domain.WaitingItem, error) {
	w, ok := m.waiting[id]
	if !ok {
		return domain.WaitingItem{}, &domain.NotFoundError{Entity: "waiting item", ID: id}
	}
	return w, nil
}

func (m *mockStore) WaitingItems(ctx context.Context, companyID string) ([]domain.WaitingItem, error) {
	out := []domain.WaitingItem{}
	for _, w := range m.waiting {
		if w.CompanyID == companyID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *mockStore) MarkWaitingResolved(ctx context.Context, id string) error {
	w, ok := m.waiting[id]
	if !ok {
		return &domain.NotFoundError{Entity: "waiting item", ID: id}
	}
	w.Status = domain.WaitingResolved
	m.waiting[id] = w
	return nil
}

func (m *mockStore) InsertSomeday(ctx context.Context, item domain.SomedayItem) error {
	m.someday[item.ID] = item
	return nil
}

func (m *mockStore) SomedayItem(ctx context.Context, id string) (domain.SomedayItem, error) {
	item, ok := m.someday[id]
	if !ok {
		return domain.SomedayItem{}, &domain.NotFoundError{Entity: "someday item", ID: id}
	}
	return item, nil
}

func (m *mockStore) SomedayItems(ctx context.Context, companyID string) ([]domain.SomedayItem, error) {
	out := []domain.SomedayItem{}
	for _, item := range m.someday {
		if item.CompanyID == companyID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *mockStore) MarkSomedayActivated(ctx context.Context, id string) error {
	item, ok := m.someday[id]
	if !ok {
		return &domain.NotFoundError{Entity: "someday item", ID: id}
	}
	item.Status = domain.SomedayActivated
	m.someday[id] = item
	return nil
}

func (m *mockStore) InsertTimeEntry(ctx context.Context, e domain.TimeEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockStore) Setting(ctx context.Context, key string) (string, error) {
	return m.settings[key], nil
}

func (m *mockStore) SetSetting(ctx context.Context, key, value string) error {
	m.settings[key] = value
	return nil
}

func testLogger() *log.Logger {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return logger
}

// fixedClock pins time to Thursday 2026-08-27 10:00 UTC.
func fixedClock() time.Time {
	return time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
}

func newTestService(store Store) *Service {
	return NewService(store, fixedClock, testLogger())
}

func seedCapture(store *mockStore, id, companyID string) {
	store.captured[id] = domain.CapturedTask{
		ID:        id,
		CompanyID: companyID,
		Name:      "Task " + id,
		Category:  "Emails",
		Priority:  domain.PriorityMedium,
		Status:    domain.CaptureToProcess,
	}
}

func TestCaptureDefaults(t *testing.T) {
	store := newMockStore()

	task, err := newTestService(store).Capture(context.Background(), domain.CapturedTask{
		CompanyID: "company-1",
		Name:      "Call the accountant",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.ID == "" {
		t.Fatal("expected a generated id")
	}
	if task.Status != domain.CaptureToProcess {
		t.Fatalf("new captures start as To Process, got %q", task.Status)
	}
	if task.Priority != domain.PriorityMedium {
		t.Fatalf("priority defaults to Medium, got %q", task.Priority)
	}
	if _, ok := store.captured[task.ID]; !ok {
		t.Fatal("capture was not persisted")
	}
}

func TestCaptureValidation(t *testing.T) {
	svc := newTestService(newMockStore())
	if _, err := svc.Capture(context.Background(), domain.CapturedTask{Name: "x"}); err == nil {
		t.Fatal("missing companyId must fail")
	}
	if _, err := svc.Capture(context.Background(), domain.CapturedTask{CompanyID: "c"}); err == nil {
		t.Fatal("missing name must fail")
	}
}

func TestProcessTasksMixedDecisions(t *testing.T) {
	store := newMockStore()
	for _, id := range []string{"t1", "t2", "t3", "t4"} {
		seedCapture(store, id, "company-1")
	}

	result, err := newTestService(store).ProcessTasks(context.Background(),
		[]string{"t1", "t2", "t3", "t4"},
		[]Decision{
			{Action: ActionSchedule, ScheduleData: &ScheduleData{Date: "2026-08-28", TimeBlock: "14:00-15:00"}},
			{Action: ActionWaiting, WaitingData: &WaitingData{WaitingFor: "Vendor quote"}},
			{Action: ActionSomeday},
			{Action: ActionComplete},
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Scheduled != 1 || result.Waiting != 1 || result.Someday != 1 || result.Completed != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("expected no errors, got %v", result.Errors)
	}

	// Every capture row survives with its moved status.
	wantStatus := map[string]string{
		"t1": domain.CaptureMovedToSchedule,
		"t2": domain.CaptureMovedToWaiting,
		"t3": domain.CaptureMovedToSomeday,
		"t4": domain.CaptureCompleted,
	}
	for id, want := range wantStatus {
		got, ok := store.captured[id]
		if !ok {
			t.Fatalf("capture row %s was deleted", id)
		}
		if got.Status != want {
			t.Fatalf("capture %s: expected status %q, got %q", id, want, got.Status)
		}
	}
}

func TestProcessTasksInvalidActionIsIsolated(t *testing.T) {
	store := newMockStore()
	seedCapture(store, "t1", "company-1")
	seedCapture(store, "t2", "company-1")

	result, err := newTestService(store).ProcessTasks(context.Background(),
		[]string{"t1", "t2"},
		[]Decision{
			{Action: "snooze"},
			{Action: ActionComplete},
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected exactly one error, got %v", result.Errors)
	}
	if !strings.Contains(result.Errors[0], "t1") || !strings.Contains(result.Errors[0], "invalid action") {
		t.Fatalf("error must name the task and the bad action, got %q", result.Errors[0])
	}
	if result.Completed != 1 {
		t.Fatalf("the valid decision must still apply, got %+v", result)
	}
}

func TestProcessTasksLengthMismatch(t *testing.T) {
	if _, err := newTestService(newMockStore()).ProcessTasks(context.Background(),
		[]string{"t1"}, nil); err == nil {
		t.Fatal("mismatched lengths must fail")
	}
}

func TestMoveToScheduleDerivesDay(t *testing.T) {
	store := newMockStore()
	seedCapture(store, "t1", "company-1")

	scheduled, err := newTestService(store).MoveToSchedule(context.Background(), "t1",
		&ScheduleData{Date: "2026-08-28", TimeBlock: "09:00-10:00"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scheduled.Day != "Friday" {
		t.Fatalf("day must derive from the date, got %q", scheduled.Day)
	}
	if scheduled.PlannedDuration != "1 hour" {
		t.Fatalf("duration defaults to 1 hour, got %q", scheduled.PlannedDuration)
	}
	if scheduled.Status != domain.SchedulePlanned {
		t.Fatalf("new schedule rows are Planned, got %q", scheduled.Status)
	}
}

func TestMoveToSomedayDefaultsReviewDate(t *testing.T) {
	store := newMockStore()
	seedCapture(store, "t1", "company-1")

	item, err := newTestService(store).MoveToSomeday(context.Background(), "t1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Reason != "Future consideration" {
		t.Fatalf("reason defaults, got %q", item.Reason)
	}
	// Three months past the fixed clock.
	if item.ReviewDate != "2026-11-27" {
		t.Fatalf("review date defaults to three months out, got %q", item.ReviewDate)
	}
}

func TestResolveWaiting(t *testing.T) {
	store := newMockStore()
	store.waiting["w1"] = domain.WaitingItem{
		ID:        "w1",
		CompanyID: "company-1",
		Name:      "Sign-off",
		Category:  "Follow-ups",
		Priority:  domain.PriorityHigh,
		Notes:     "chase legal",
		Status:    domain.WaitingOpen,
	}

	scheduled, err := newTestService(store).ResolveWaiting(context.Background(), "w1",
		&ScheduleData{Date: "2026-08-28", TimeBlock: "10:00-11:00"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(scheduled.Notes, "(Resolved from waiting list)") {
		t.Fatalf("notes must carry the resolution marker, got %q", scheduled.Notes)
	}
	if store.waiting["w1"].Status != domain.WaitingResolved {
		t.Fatalf("waiting row must be marked Resolved, got %q", store.waiting["w1"].Status)
	}
}

func TestActivateSomeday(t *testing.T) {
	store := newMockStore()
	store.someday["d1"] = domain.SomedayItem{
		ID:        "d1",
		CompanyID: "company-1",
		Name:      "Open second branch",
		Category:  "Business Development",
		Priority:  domain.PriorityLow,
		Notes:     "needs capital",
		Status:    domain.SomedayOpen,
	}

	capture, err := newTestService(store).ActivateSomeday(context.Background(), "d1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(capture.Name, "(From Someday)") {
		t.Fatalf("activated capture must carry the someday marker, got %q", capture.Name)
	}
	if capture.Status != domain.CaptureToProcess {
		t.Fatalf("activated tasks rejoin the inbox, got %q", capture.Status)
	}
	if store.someday["d1"].Status != domain.SomedayActivated {
		t.Fatalf("someday row must be marked Activated, got %q", store.someday["d1"].Status)
	}
}

func TestWaitingListSortsOpenItems(t *testing.T) {
	store := newMockStore()
	store.waiting["w1"] = domain.WaitingItem{ID: "w1", CompanyID: "c", ExpectedDate: "2026-09-10", Status: domain.WaitingOpen}
	store.waiting["w2"] = domain.WaitingItem{ID: "w2", CompanyID: "c", ExpectedDate: "2026-09-01", Status: domain.WaitingOpen}
	store.waiting["w3"] = domain.WaitingItem{ID: "w3", CompanyID: "c", Status: domain.WaitingOpen}
	store.waiting["w4"] = domain.WaitingItem{ID: "w4", CompanyID: "c", ExpectedDate: "2026-08-01", Status: domain.WaitingResolved}

	list, err := newTestService(store).WaitingList(context.Background(), "c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("resolved items must be excluded, got %d", len(list))
	}
	if list[0].ID != "w2" || list[1].ID != "w1" || list[2].ID != "w3" {
		t.Fatalf("expected order w2, w1, w3 (no date last), got %s %s %s", list[0].ID, list[1].ID, list[2].ID)
	}
}

func TestCompanyLifecycle(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store)

	company, err := svc.CreateCompany(context.Background(), domain.Company{
		Name:           "Widgets Pvt Ltd",
		AnnualTurnover: 10000000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if company.MVOT != 4348 {
		t.Fatalf("a 1 crore turnover yields an MVOT of 4348, got %g", company.MVOT)
	}

	turnover := 23000000.0
	updated, err := svc.UpdateCompany(context.Background(), company.ID, CompanyUpdate{AnnualTurnover: &turnover})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.MVOT != 10000 {
		t.Fatalf("MVOT must recompute on turnover change, got %g", updated.MVOT)
	}

	store.hasData = true
	if err := svc.DeleteCompany(context.Background(), company.ID); err == nil {
		t.Fatal("a company with data must not be deletable")
	}
	store.hasData = false
	if err := svc.DeleteCompany(context.Background(), company.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.SwitchCompany(context.Background(), "missing"); err == nil {
		t.Fatal("switching to an unknown company must fail")
	}
}
