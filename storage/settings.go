package storage

import (
	"context"
	"encoding/json"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"github.com/JONIJAIN/bms/domain"
)

type settingEntity struct {
	aztables.Entity
	Value       string `json:"Value"`
	Description string `json:"Description"`
	ModifiedAt  string `json:"ModifiedAt"`
}

// Setting returns the value stored under key, or "" when the key is absent.
func (s *Storage) Setting(ctx context.Context, key string) (string, error) {
	resp, err := s.settings.GetEntity(ctx, settingsPartition, key, nil)
	if err != nil {
		if isNotFound(err) {
			return "", nil
		}
		return "", err
	}
	var ent settingEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return "", err
	}
	return ent.Value, nil
}

// SetSetting writes key to value, creating the row when needed.
func (s *Storage) SetSetting(ctx context.Context, key, value string) error {
	return upsert(ctx, s.settings, settingEntity{
		Entity:     aztables.Entity{PartitionKey: settingsPartition, RowKey: key},
		Value:      value,
		ModifiedAt: s.now(),
	})
}

// SetSettingDescribed writes key to value with a human-readable description,
// used when seeding the settings table.
func (s *Storage) SetSettingDescribed(ctx context.Context, key, value, description string) error {
	return upsert(ctx, s.settings, settingEntity{
		Entity:      aztables.Entity{PartitionKey: settingsPartition, RowKey: key},
		Value:       value,
		Description: description,
		ModifiedAt:  s.now(),
	})
}

// Settings lists all settings rows.
func (s *Storage) Settings(ctx context.Context) ([]domain.Setting, error) {
	out := []domain.Setting{}
	err := scan(ctx, s.settings, partitionFilter(settingsPartition), func(raw []byte) error {
		var ent settingEntity
		if err := json.Unmarshal(raw, &ent); err != nil {
			return err
		}
		out = append(out, domain.Setting{
			Key:         ent.RowKey,
			Value:       ent.Value,
			Description: ent.Description,
			ModifiedAt:  ent.ModifiedAt,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
