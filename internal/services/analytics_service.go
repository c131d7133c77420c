package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"jizhang/internal/analytics"
	apperrors "jizhang/internal/errors"
	"jizhang/internal/models"
)

// analyticsService loads a user's transactions for a reporting window and
// hands them to the aggregation engine.
type analyticsService struct {
	db   *gorm.DB
	loc  *time.Location
	now  func() time.Time
	topN int
}

// AnalyticsOption customises an analytics service.
type AnalyticsOption func(*analyticsService)

// WithClock replaces time.Now as the reference for "today".
func WithClock(now func() time.Time) AnalyticsOption {
	return func(s *analyticsService) { s.now = now }
}

// WithDefaultTopN sets the ranking length used when a request gives none.
func WithDefaultTopN(n int) AnalyticsOption {
	return func(s *analyticsService) {
		if n > 0 {
			s.topN = n
		}
	}
}

// NewAnalyticsService creates a new AnalyticsServicer. loc is the calendar
// in which days, weeks and months are counted.
func NewAnalyticsService(db *gorm.DB, loc *time.Location, opts ...AnalyticsOption) AnalyticsServicer {
	s := &analyticsService{db: db, loc: loc, now: time.Now, topN: analytics.DefaultTopN}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// load fetches the user's records inside w and the category index. The two
// reads are independent and run concurrently.
func (s *analyticsService) load(ctx context.Context, userID string, w analytics.Window, t *analytics.Type) ([]analytics.Record, analytics.Categories, error) {
	var (
		rows       []models.Transaction
		categories []models.Category
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q := s.db.WithContext(gctx).
			Where("user_id = ? AND date >= ? AND date <= ?", userID, w.Start.UTC(), w.End.UTC())
		if t != nil {
			q = q.Where("type = ?", *t)
		}
		return q.Find(&rows).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Find(&categories).Error
	})
	if err := g.Wait(); err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	records := make([]analytics.Record, len(rows))
	for i, row := range rows {
		records[i] = row.Record()
	}
	infos := make([]analytics.Category, len(categories))
	for i, c := range categories {
		infos[i] = c.Info()
	}
	return records, analytics.IndexCategories(infos), nil
}

func requestedType(q analytics.Query) (analytics.Type, error) {
	t := q.TypeOrDefault()
	if !t.Valid() {
		return "", apperrors.WithMessage(apperrors.ErrInvalidParameter, "transaction_type must be EXPENSE or INCOME")
	}
	return t, nil
}

// GetBreakdown groups the window's transactions of the requested type by
// category.
func (s *analyticsService) GetBreakdown(ctx context.Context, q analytics.Query) (*BreakdownResult, error) {
	t, err := requestedType(q)
	if err != nil {
		return nil, err
	}
	w, err := analytics.ResolveWindow(q, s.now(), s.loc)
	if err != nil {
		return nil, err
	}

	records, cats, err := s.load(ctx, q.UserID, w, &t)
	if err != nil {
		return nil, err
	}

	return &BreakdownResult{
		Window: w,
		Type:   t,
		Total:  analytics.SumByType(records, t, w),
		Data:   analytics.Breakdown(records, cats, t, w),
	}, nil
}

// GetTrend sums expense and income per bucket of the requested view.
func (s *analyticsService) GetTrend(ctx context.Context, q analytics.Query) (*TrendResult, error) {
	buckets, err := analytics.Partition(q, s.now(), s.loc)
	if err != nil {
		return nil, err
	}
	span := analytics.Span(buckets)
	span.ViewMode = q.ViewMode
	if span.ViewMode == "" {
		span.ViewMode = analytics.ViewModeMonth
	}

	records, _, err := s.load(ctx, q.UserID, span, nil)
	if err != nil {
		return nil, err
	}

	return &TrendResult{Window: span, Data: analytics.Trend(records, buckets)}, nil
}

// GetTop ranks the window's largest transactions of the requested type.
// n <= 0 selects the configured default.
func (s *analyticsService) GetTop(ctx context.Context, q analytics.Query, n int) (*TopResult, error) {
	t, err := requestedType(q)
	if err != nil {
		return nil, err
	}
	w, err := analytics.ResolveWindow(q, s.now(), s.loc)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = s.topN
	}

	records, cats, err := s.load(ctx, q.UserID, w, &t)
	if err != nil {
		return nil, err
	}

	return &TopResult{Window: w, Type: t, Data: analytics.TopN(records, cats, t, w, n)}, nil
}
