package storage

import (
	"context"
	"encoding/json"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"github.com/JONIJAIN/bms/domain"
)

type companyEntity struct {
	aztables.Entity
	Name           string  `json:"Name"`
	AnnualTurnover float64 `json:"AnnualTurnover"`
	BusinessType   string  `json:"BusinessType"`
	MVOT           float64 `json:"MVOT"`
	CreatedAt      string  `json:"CreatedAt"`
	ModifiedAt     string  `json:"ModifiedAt"`
}

func companyFromEntity(raw []byte) (domain.Company, error) {
	var ent companyEntity
	if err := json.Unmarshal(raw, &ent); err != nil {
		return domain.Company{}, err
	}
	return domain.Company{
		ID:             ent.RowKey,
		Name:           ent.Name,
		AnnualTurnover: ent.AnnualTurnover,
		BusinessType:   ent.BusinessType,
		MVOT:           ent.MVOT,
		CreatedAt:      ent.CreatedAt,
		ModifiedAt:     ent.ModifiedAt,
	}, nil
}

func companyToEntity(c domain.Company) companyEntity {
	return companyEntity{
		Entity:         aztables.Entity{PartitionKey: companiesPartition, RowKey: c.ID},
		Name:           c.Name,
		AnnualTurnover: c.AnnualTurnover,
		BusinessType:   c.BusinessType,
		MVOT:           c.MVOT,
		CreatedAt:      c.CreatedAt,
		ModifiedAt:     c.ModifiedAt,
	}
}

// Companies lists every registered company.
func (s *Storage) Companies(ctx context.Context) ([]domain.Company, error) {
	companies := []domain.Company{}
	err := scan(ctx, s.companies, partitionFilter(companiesPartition), func(raw []byte) error {
		c, err := companyFromEntity(raw)
		if err != nil {
			return err
		}
		companies = append(companies, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return companies, nil
}

// Company fetches one company by id.
func (s *Storage) Company(ctx context.Context, id string) (domain.Company, error) {
	ent, err := s.companies.GetEntity(ctx, companiesPartition, id, nil)
	if err != nil {
		if isNotFound(err) {
			return domain.Company{}, &domain.NotFoundError{Entity: "company", ID: id}
		}
		return domain.Company{}, err
	}
	return companyFromEntity(ent.Value)
}

// InsertCompany adds a new company row.
func (s *Storage) InsertCompany(ctx context.Context, c domain.Company) error {
	return insert(ctx, s.companies, companyToEntity(c))
}

// SaveCompany replaces the company's mutable columns.
func (s *Storage) SaveCompany(ctx context.Context, c domain.Company) error {
	return upsert(ctx, s.companies, companyToEntity(c))
}

// DeleteCompany removes the company row.
func (s *Storage) DeleteCompany(ctx context.Context, id string) error {
	_, err := s.companies.DeleteEntity(ctx, companiesPartition, id, nil)
	if isNotFound(err) {
		return &domain.NotFoundError{Entity: "company", ID: id}
	}
	return err
}

// CompanyHasData reports whether any list row references the company.
func (s *Storage) CompanyHasData(ctx context.Context, id string) (bool, error) {
	tables := []*aztables.Client{s.captures, s.schedule, s.waiting, s.someday, s.timeEntries}
	for _, table := range tables {
		found := false
		err := scan(ctx, table, partitionFilter(id), func([]byte) error {
			found = true
			return nil
		})
		if err != nil {
			return false, err
		}
		if found {
			return true, nil
		}
	}
	return false, nil
}
