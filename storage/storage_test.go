package storage

import (
	"testing"

	"github.com/JONIJAIN/bms/domain"
)

func domainCompany() domain.Company {
	return domain.Company{
		ID:             "c1",
		Name:           "Acme Textiles",
		AnnualTurnover: 10000000,
		BusinessType:   "Manufacturing",
		MVOT:           4348,
	}
}

func TestCompanyFromEntity(t *testing.T) {
	data := []byte(`{"PartitionKey":"company","RowKey":"c1","Name":"Acme Textiles","AnnualTurnover":10000000,"BusinessType":"Manufacturing","MVOT":4348,"CreatedAt":"2026-08-27T10:00:00Z"}`)
	c, err := companyFromEntity(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c.ID != "c1" || c.Name != "Acme Textiles" || c.MVOT != 4348 {
		t.Fatalf("unexpected company: %+v", c)
	}
	if c.AnnualTurnover != 10000000 {
		t.Fatalf("unexpected turnover: %v", c.AnnualTurnover)
	}
}

func TestCompanyToEntityUsesFixedPartition(t *testing.T) {
	ent := companyToEntity(domainCompany())
	if ent.PartitionKey != companiesPartition {
		t.Fatalf("unexpected partition key: %s", ent.PartitionKey)
	}
	if ent.RowKey != "c1" {
		t.Fatalf("unexpected row key: %s", ent.RowKey)
	}
}

func TestCapturedFromEntity(t *testing.T) {
	data := []byte(`{"PartitionKey":"c1","RowKey":"t1","Name":"Call supplier","Category":"Calls","Priority":"High","Status":"To Process","CreatedAt":"2026-08-27T10:00:00Z"}`)
	task, err := capturedFromEntity(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if task.CompanyID != "c1" || task.ID != "t1" {
		t.Fatalf("unexpected keys: %+v", task)
	}
	if task.Status != "To Process" || task.Priority != "High" {
		t.Fatalf("unexpected fields: %+v", task)
	}
}

func TestScheduledFromEntity(t *testing.T) {
	data := []byte(`{"PartitionKey":"c1","RowKey":"s1","Date":"2026-08-25","Day":"Tuesday","TimeBlock":"08:00-12:00","Name":"Tuesday Magic - Auto-Pilot Work","Category":"Deep Work","PlannedDuration":"4 hours","Status":"Planned"}`)
	task, err := scheduledFromEntity(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if task.Date != "2026-08-25" || task.TimeBlock != "08:00-12:00" {
		t.Fatalf("unexpected schedule fields: %+v", task)
	}
	if got := task.PlannedHours(); got != 4 {
		t.Fatalf("unexpected planned hours: %v", got)
	}
}

func TestWaitingFromEntity(t *testing.T) {
	data := []byte(`{"PartitionKey":"c1","RowKey":"w1","Name":"Quote from vendor","WaitingFor":"Price quote","ContactPerson":"Ravi","ExpectedDate":"2026-09-05","Status":"Waiting"}`)
	item, err := waitingFromEntity(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if item.WaitingFor != "Price quote" || item.ContactPerson != "Ravi" {
		t.Fatalf("unexpected waiting item: %+v", item)
	}
}

func TestSomedayFromEntity(t *testing.T) {
	data := []byte(`{"PartitionKey":"c1","RowKey":"sd1","Name":"New product line","Reason":"Needs budget","ReviewDate":"2026-11-27","Status":"Someday"}`)
	item, err := somedayFromEntity(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if item.Reason != "Needs budget" || item.ReviewDate != "2026-11-27" {
		t.Fatalf("unexpected someday item: %+v", item)
	}
}

func TestTimeEntryFromEntity(t *testing.T) {
	data := []byte(`{"PartitionKey":"c1","RowKey":"e1","Date":"2026-08-27","TaskName":"Email Batch","Category":"Emails","PlannedHours":1,"ActualHours":1.5,"StartTime":"14:00","EndTime":"15:30","MVOTCost":6522}`)
	entry, err := timeEntryFromEntity(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry.ActualHours != 1.5 || entry.MVOTCost != 6522 {
		t.Fatalf("unexpected time entry: %+v", entry)
	}
}

func TestFilters(t *testing.T) {
	if got := partitionFilter("c1"); got != "PartitionKey eq 'c1'" {
		t.Fatalf("unexpected partition filter: %s", got)
	}
	if got := rowFilter("t1"); got != "RowKey eq 't1'" {
		t.Fatalf("unexpected row filter: %s", got)
	}
}

func TestDefaultTables(t *testing.T) {
	tables := DefaultTables()
	if tables.Companies != "companies" || tables.Captures != "quickcapture" {
		t.Fatalf("unexpected defaults: %+v", tables)
	}
	if tables.NotifyQueue != "notifications" {
		t.Fatalf("unexpected queue name: %s", tables.NotifyQueue)
	}
}
