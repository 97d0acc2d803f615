// Package storage persists all task-management state in Azure Table Storage,
// one table per list, with a queue for outgoing notifications. Rows are
// partitioned by company so every list read is a single-partition scan.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"

	"github.com/JONIJAIN/bms/domain"
)

// Fixed partition keys for the tables that are not company scoped.
const (
	companiesPartition = "company"
	settingsPartition  = "settings"
)

// Tables names the storage tables and the notification queue.
type Tables struct {
	Companies   string
	Captures    string
	Schedule    string
	Waiting     string
	Someday     string
	TimeEntries string
	Settings    string
	NotifyQueue string
}

// DefaultTables is the standard naming used by the init and service binaries.
func DefaultTables() Tables {
	return Tables{
		Companies:   "companies",
		Captures:    "quickcapture",
		Schedule:    "weeklyschedule",
		Waiting:     "waitinglist",
		Someday:     "somedaylist",
		TimeEntries: "timetracker",
		Settings:    "settings",
		NotifyQueue: "notifications",
	}
}

// Storage provides access to the underlying persistence mechanisms.
type Storage struct {
	companies   *aztables.Client
	captures    *aztables.Client
	schedule    *aztables.Client
	waiting     *aztables.Client
	someday     *aztables.Client
	timeEntries *aztables.Client
	settings    *aztables.Client
	notifyQueue *azqueue.QueueClient
	clock       domain.Clock
}

// New creates a Storage instance from the given connection string.
func New(connStr string, tables Tables, clock domain.Clock) (*Storage, error) {
	tablesClientOptions := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &tablesClientOptions)
	if err != nil {
		return nil, err
	}
	queueClientOptions := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	queue, err := azqueue.NewQueueClientFromConnectionString(connStr, tables.NotifyQueue, &queueClientOptions)
	if err != nil {
		return nil, err
	}
	if clock == nil {
		clock = domain.SystemClock
	}
	return &Storage{
		companies:   svc.NewClient(tables.Companies),
		captures:    svc.NewClient(tables.Captures),
		schedule:    svc.NewClient(tables.Schedule),
		waiting:     svc.NewClient(tables.Waiting),
		someday:     svc.NewClient(tables.Someday),
		timeEntries: svc.NewClient(tables.TimeEntries),
		settings:    svc.NewClient(tables.Settings),
		notifyQueue: queue,
		clock:       clock,
	}, nil
}

// EnqueueNotification posts one JSON message to the notification queue.
func (s *Storage) EnqueueNotification(ctx context.Context, message string) error {
	_, err := s.notifyQueue.EnqueueMessage(ctx, message, nil)
	return err
}

// DequeueNotification retrieves one pending notification message, nil when
// the queue is empty.
func (s *Storage) DequeueNotification(ctx context.Context) (*azqueue.DequeuedMessage, error) {
	resp, err := s.notifyQueue.DequeueMessage(ctx, nil)
	if err != nil {
		return nil, err
	}
	if len(resp.Messages) == 0 {
		return nil, nil
	}
	return resp.Messages[0], nil
}

// DeleteNotification removes a processed message from the queue.
func (s *Storage) DeleteNotification(ctx context.Context, id, receipt string) error {
	_, err := s.notifyQueue.DeleteMessage(ctx, id, receipt, nil)
	return err
}

func (s *Storage) now() string {
	return s.clock().UTC().Format(time.RFC3339)
}

func isNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == 404
}

func partitionFilter(companyID string) string {
	return fmt.Sprintf("PartitionKey eq '%s'", companyID)
}

func rowFilter(id string) string {
	return fmt.Sprintf("RowKey eq '%s'", id)
}

// scan pages through one table filter and hands each raw entity to decode.
func scan(ctx context.Context, table *aztables.Client, filter string, decode func(raw []byte) error) error {
	pager := table.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return err
		}
		for _, raw := range resp.Entities {
			if err := decode(raw); err != nil {
				return err
			}
		}
	}
	return nil
}

func insert(ctx context.Context, table *aztables.Client, entity any) error {
	payload, err := json.Marshal(entity)
	if err != nil {
		return err
	}
	_, err = table.AddEntity(ctx, payload, nil)
	return err
}

func upsert(ctx context.Context, table *aztables.Client, entity any) error {
	payload, err := json.Marshal(entity)
	if err != nil {
		return err
	}
	_, err = table.UpsertEntity(ctx, payload, nil)
	return err
}

// merge folds a partial entity into an existing row, leaving absent columns
// untouched.
func merge(ctx context.Context, table *aztables.Client, entity any) error {
	payload, err := json.Marshal(entity)
	if err != nil {
		return err
	}
	et := azcore.ETagAny
	_, err = table.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{
		IfMatch:    &et,
		UpdateMode: aztables.UpdateModeMerge,
	})
	return err
}
