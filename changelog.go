package entitykit

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// writeChangeLog inserts one ChangeLog row describing a mutation of entity.
// before is nil for creates, after is nil for deletes. The request ID is
// taken from the context when the transport layer put one there, otherwise
// a fresh one is generated so related rows stay correlatable.
func writeChangeLog(ctx context.Context, s Session, entity string, before, after any) error {
	requestID := GetRequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	row := &ChangeLog{
		RequestID: requestID,
		Entity:    entity,
	}
	if before != nil {
		b, err := json.Marshal(before)
		if err != nil {
			return err
		}
		row.Before = b
	}
	if after != nil {
		b, err := json.Marshal(after)
		if err != nil {
			return err
		}
		row.After = b
	}

	_, err := s.NewInsert().Model(row).Exec(ctx)
	return err
}

// ChangeLogFilter provides options for querying recorded changes.
type ChangeLogFilter struct {
	RequestID string
	Entity    string
	Limit     int
	Skip      int
}

// GetChangeLogs retrieves recorded changes, newest first.
func GetChangeLogs(ctx context.Context, s Session, filter ChangeLogFilter) ([]ChangeLog, error) {
	var logs []ChangeLog
	q := s.NewSelect().Model(&logs)
	if filter.RequestID != "" {
		q = q.Where("request_id = ?", filter.RequestID)
	}
	if filter.Entity != "" {
		q = q.Where("entity = ?", filter.Entity)
	}

	limit := filter.Limit
	if limit == 0 {
		limit = DefaultMaxPageSize
	}
	q = q.Limit(limit)
	if filter.Skip > 0 {
		q = q.Offset(filter.Skip)
	}

	if err := q.Order("recorded_at DESC").Scan(ctx); err != nil {
		return nil, err
	}
	return logs, nil
}
