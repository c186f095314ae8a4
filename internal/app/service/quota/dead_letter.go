package quota

import (
	"context"
	"fmt"

	models "github.com/fatflowers/admeter/internal/models"
	"github.com/fatflowers/admeter/pkg/logctx"
	"github.com/fatflowers/admeter/pkg/metrics"
	"github.com/fatflowers/admeter/pkg/tool"
	types "github.com/fatflowers/admeter/pkg/types"

	"github.com/samber/lo"
	"gorm.io/datatypes"
	"gorm.io/gorm/clause"
)

func (s *Service) deadLetter(ctx context.Context, op models.CompensationOperation, subscriptionID string, cause error, payload map[string]any) {
	logger := logctx.FromCtx(ctx, s.log)
	logger.Errorw("compensation failed", "operation", op, "subscription_id", subscriptionID, "error", cause)
	metrics.IncCompensationFailure()

	entry := &models.CompensationDeadLetter{
		ID:             tool.GenerateUUIDV7(),
		Operation:      op,
		SubscriptionID: subscriptionID,
		Error:          cause.Error(),
		Payload:        datatypes.JSONMap(lo.Assign(map[string]any{}, payload)),
		TraceID:        logctx.TraceID(ctx),
		CreatedAt:      s.clock.Now(),
	}
	if err := s.db.WithContext(context.WithoutCancel(ctx)).Create(entry).Error; err != nil {
		logger.Errorw("failed to persist compensation dead letter", "operation", op, "subscription_id", subscriptionID, "error", err)
	}
}

// RecordCompensationFailure dead-letters a compensation performed outside this
// service, such as returning a metered impression.
func (s *Service) RecordCompensationFailure(ctx context.Context, op models.CompensationOperation, subscriptionID string, cause error, payload map[string]any) {
	s.deadLetter(ctx, op, subscriptionID, cause, payload)
}

// ScanDeadLettersRequest mirrors the admin listing shape: filters, offset
// pagination and an optional sort column.
type ScanDeadLettersRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanDeadLettersResponse struct {
	Items []*models.CompensationDeadLetter `json:"items"`
	Total int64                            `json:"total"`
}

var deadLetterColumns = []string{"operation", "subscription_id", "created_at", "trace_id"}

// ScanDeadLetters lists dead-lettered compensations, newest first by default.
func (s *Service) ScanDeadLetters(ctx context.Context, req *ScanDeadLettersRequest) (*ScanDeadLettersResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", types.ErrInvalidQuery)
	}
	if req.Size <= 0 {
		req.Size = 10
	}
	if req.From < 0 {
		req.From = 0
	}
	if err := types.ValidateFilters(req.Filters, deadLetterColumns); err != nil {
		return nil, err
	}
	sortBy := lo.Ternary(req.SortBy == "", "created_at", req.SortBy)
	if !lo.Contains(deadLetterColumns, sortBy) {
		return nil, fmt.Errorf("%w: unsupported sort field %s", types.ErrInvalidQuery, sortBy)
	}

	tx := s.db.WithContext(ctx).Model(&models.CompensationDeadLetter{})
	if len(req.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{types.FiltersAnd(req.Filters)}})
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count dead letters: %w", err)
	}

	var rows []*models.CompensationDeadLetter
	q := tx.Limit(req.Size).Offset(req.From).
		Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: sortBy}, Desc: req.SortOrder != "asc"}}})
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list dead letters: %w", err)
	}
	return &ScanDeadLettersResponse{Items: rows, Total: total}, nil
}
