package storage

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"github.com/JONIJAIN/bms/domain"
)

type timeEntryEntity struct {
	aztables.Entity
	Date         string  `json:"Date"`
	TaskName     string  `json:"TaskName"`
	Category     string  `json:"Category"`
	PlannedHours float64 `json:"PlannedHours"`
	ActualHours  float64 `json:"ActualHours"`
	StartTime    string  `json:"StartTime"`
	EndTime      string  `json:"EndTime"`
	Notes        string  `json:"Notes"`
	MVOTCost     float64 `json:"MVOTCost"`
}

func timeEntryFromEntity(raw []byte) (domain.TimeEntry, error) {
	var ent timeEntryEntity
	if err := json.Unmarshal(raw, &ent); err != nil {
		return domain.TimeEntry{}, err
	}
	return domain.TimeEntry{
		ID:           ent.RowKey,
		CompanyID:    ent.PartitionKey,
		Date:         ent.Date,
		TaskName:     ent.TaskName,
		Category:     ent.Category,
		PlannedHours: ent.PlannedHours,
		ActualHours:  ent.ActualHours,
		StartTime:    ent.StartTime,
		EndTime:      ent.EndTime,
		Notes:        ent.Notes,
		MVOTCost:     ent.MVOTCost,
	}, nil
}

// InsertTimeEntry appends a tracked-time row.
func (s *Storage) InsertTimeEntry(ctx context.Context, e domain.TimeEntry) error {
	return insert(ctx, s.timeEntries, timeEntryEntity{
		Entity:       aztables.Entity{PartitionKey: e.CompanyID, RowKey: e.ID},
		Date:         e.Date,
		TaskName:     e.TaskName,
		Category:     e.Category,
		PlannedHours: e.PlannedHours,
		ActualHours:  e.ActualHours,
		StartTime:    e.StartTime,
		EndTime:      e.EndTime,
		Notes:        e.Notes,
		MVOTCost:     e.MVOTCost,
	})
}

// TimeEntries lists the company's tracked time, newest first, with
// limit/offset applied after sorting.
func (s *Storage) TimeEntries(ctx context.Context, companyID string, limit, offset int) ([]domain.TimeEntry, error) {
	entries := []domain.TimeEntry{}
	err := scan(ctx, s.timeEntries, partitionFilter(companyID), func(raw []byte) error {
		e, err := timeEntryFromEntity(raw)
		if err != nil {
			return err
		}
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date > entries[j].Date
		}
		return entries[i].StartTime > entries[j].StartTime
	})
	if offset >= len(entries) {
		return []domain.TimeEntry{}, nil
	}
	entries = entries[offset:]
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries, nil
}
