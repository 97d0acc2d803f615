package storage

import (
	"context"
	"encoding/json"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"github.com/JONIJAIN/bms/domain"
)

type waitingEntity struct {
	aztables.Entity
	Name          string `json:"Name"`
	Category      string `json:"Category"`
	Priority      string `json:"Priority"`
	WaitingFor    string `json:"WaitingFor"`
	ContactPerson string `json:"ContactPerson"`
	ExpectedDate  string `json:"ExpectedDate"`
	Notes         string `json:"Notes"`
	Status        string `json:"Status"`
	CreatedAt     string `json:"CreatedAt"`
}

func waitingFromEntity(raw []byte) (domain.WaitingItem, error) {
	var ent waitingEntity
	if err := json.Unmarshal(raw, &ent); err != nil {
		return domain.WaitingItem{}, err
	}
	return domain.WaitingItem{
		ID:            ent.RowKey,
		CompanyID:     ent.PartitionKey,
		Name:          ent.Name,
		Category:      ent.Category,
		Priority:      ent.Priority,
		WaitingFor:    ent.WaitingFor,
		ContactPerson: ent.ContactPerson,
		ExpectedDate:  ent.ExpectedDate,
		Notes:         ent.Notes,
		Status:        ent.Status,
		CreatedAt:     ent.CreatedAt,
	}, nil
}

// InsertWaiting appends a waiting-list row.
func (s *Storage) InsertWaiting(ctx context.Context, w domain.WaitingItem) error {
	return insert(ctx, s.waiting, waitingEntity{
		Entity:        aztables.Entity{PartitionKey: w.CompanyID, RowKey: w.ID},
		Name:          w.Name,
		Category:      w.Category,
		Priority:      w.Priority,
		WaitingFor:    w.WaitingFor,
		ContactPerson: w.ContactPerson,
		ExpectedDate:  w.ExpectedDate,
		Notes:         w.Notes,
		Status:        w.Status,
		CreatedAt:     w.CreatedAt,
	})
}

// WaitingItem fetches one waiting row by id.
func (s *Storage) WaitingItem(ctx context.Context, id string) (domain.WaitingItem, error) {
	var found *domain.WaitingItem
	err := scan(ctx, s.waiting, rowFilter(id), func(raw []byte) error {
		w, err := waitingFromEntity(raw)
		if err != nil {
			return err
		}
		found = &w
		return nil
	})
	if err != nil {
		return domain.WaitingItem{}, err
	}
	if found == nil {
		return domain.WaitingItem{}, &domain.NotFoundError{Entity: "waiting item", ID: id}
	}
	return *found, nil
}

// WaitingItems lists every waiting row of the company.
func (s *Storage) WaitingItems(ctx context.Context, companyID string) ([]domain.WaitingItem, error) {
	items := []domain.WaitingItem{}
	err := scan(ctx, s.waiting, partitionFilter(companyID), func(raw []byte) error {
		w, err := waitingFromEntity(raw)
		if err != nil {
			return err
		}
		items = append(items, w)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// MarkWaitingResolved closes a waiting row in place.
func (s *Storage) MarkWaitingResolved(ctx context.Context, id string) error {
	w, err := s.WaitingItem(ctx, id)
	if err != nil {
		return err
	}
	return merge(ctx, s.waiting, struct {
		aztables.Entity
		Status string `json:"Status"`
	}{
		Entity: aztables.Entity{PartitionKey: w.CompanyID, RowKey: id},
		Status: domain.WaitingResolved,
	})
}

type somedayEntity struct {
	aztables.Entity
	Name       string `json:"Name"`
	Category   string `json:"Category"`
	Priority   string `json:"Priority"`
	Reason     string `json:"Reason"`
	ReviewDate string `json:"ReviewDate"`
	Notes      string `json:"Notes"`
	Status     string `json:"Status"`
	CreatedAt  string `json:"CreatedAt"`
}

func somedayFromEntity(raw []byte) (domain.SomedayItem, error) {
	var ent somedayEntity
	if err := json.Unmarshal(raw, &ent); err != nil {
		return domain.SomedayItem{}, err
	}
	return domain.SomedayItem{
		ID:         ent.RowKey,
		CompanyID:  ent.PartitionKey,
		Name:       ent.Name,
		Category:   ent.Category,
		Priority:   ent.Priority,
		Reason:     ent.Reason,
		ReviewDate: ent.ReviewDate,
		Notes:      ent.Notes,
		Status:     ent.Status,
		CreatedAt:  ent.CreatedAt,
	}, nil
}

// InsertSomeday appends a someday-list row.
func (s *Storage) InsertSomeday(ctx context.Context, item domain.SomedayItem) error {
	return insert(ctx, s.someday, somedayEntity{
		Entity:     aztables.Entity{PartitionKey: item.CompanyID, RowKey: item.ID},
		Name:       item.Name,
		Category:   item.Category,
		Priority:   item.Priority,
		Reason:     item.Reason,
		ReviewDate: item.ReviewDate,
		Notes:      item.Notes,
		Status:     item.Status,
		CreatedAt:  item.CreatedAt,
	})
}

// SomedayItem fetches one someday row by id.
func (s *Storage) SomedayItem(ctx context.Context, id string) (domain.SomedayItem, error) {
	var found *domain.SomedayItem
	err := scan(ctx, s.someday, rowFilter(id), func(raw []byte) error {
		item, err := somedayFromEntity(raw)
		if err != nil {
			return err
		}
		found = &item
		return nil
	})
	if err != nil {
		return domain.SomedayItem{}, err
	}
	if found == nil {
		return domain.SomedayItem{}, &domain.NotFoundError{Entity: "someday item", ID: id}
	}
	return *found, nil
}

// SomedayItems lists every someday row of the company.
func (s *Storage) SomedayItems(ctx context.Context, companyID string) ([]domain.SomedayItem, error) {
	items := []domain.SomedayItem{}
	err := scan(ctx, s.someday, partitionFilter(companyID), func(raw []byte) error {
		item, err := somedayFromEntity(raw)
		if err != nil {
			return err
		}
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// MarkSomedayActivated closes a someday row in place.
func (s *Storage) MarkSomedayActivated(ctx context.Context, id string) error {
	item, err := s.SomedayItem(ctx, id)
	if err != nil {
		return err
	}
	return merge(ctx, s.someday, struct {
		aztables.Entity
		Status string `json:"Status"`
	}{
		Entity: aztables.Entity{PartitionKey: item.CompanyID, RowKey: id},
		Status: domain.SomedayActivated,
	})
}
