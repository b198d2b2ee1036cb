package gorelay

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type (
	// PageInfo describes the page position. StartCursor and EndCursor point at
	// the first and last rows of the whole filtered set, not of the page.
	PageInfo struct {
		StartCursor     string `json:"startCursor"`
		EndCursor       string `json:"endCursor"`
		HasNextPage     bool   `json:"hasNextPage"`
		HasPreviousPage bool   `json:"hasPreviousPage"`
	}

	PaginationEdge[T any] struct {
		Cursor string `json:"cursor"`
		Node   T      `json:"node"`
	}

	// PaginationResult is one page in canonical (base) order.
	PaginationResult[T any] struct {
		Edges      []PaginationEdge[T] `json:"edges"`
		TotalCount int64               `json:"totalCount"`
		PageInfo   PageInfo            `json:"pageInfo"`
	}
)

// Nodes returns the page rows without cursors.
func (r *PaginationResult[T]) Nodes() []T {
	if r == nil {
		return nil
	}

	return lo.Map(r.Edges, func(edge PaginationEdge[T], _ int) T {
		return edge.Node
	})
}

// FormatResult maps every node through format, keeping cursors and page info.
func FormatResult[T, N any](result *PaginationResult[T], format func(T) N) *PaginationResult[N] {
	if result == nil {
		return nil
	}

	return &PaginationResult[N]{
		Edges: lo.Map(result.Edges, func(edge PaginationEdge[T], _ int) PaginationEdge[N] {
			return PaginationEdge[N]{Cursor: edge.Cursor, Node: format(edge.Node)}
		}),
		TotalCount: result.TotalCount,
		PageInfo:   result.PageInfo,
	}
}

// Paginator runs one pagination request over rows of type T. It never modifies
// the query passed to Paginate: the count, boundary and page queries each run
// on their own clone.
type Paginator[T any] struct {
	opts     PaginatorOptions
	getters  Getters[T]
	logger   *slog.Logger
	metrics  *Metrics
	parallel bool
}

func NewPaginator[T any](opts PaginatorOptions, getters Getters[T]) *Paginator[T] {
	return &Paginator[T]{
		opts:    opts,
		getters: getters,
		logger:  slog.New(slog.DiscardHandler),
	}
}

// WithLogger sets the structured logger. The plan is logged at debug level,
// failures at error level.
func (p *Paginator[T]) WithLogger(logger *slog.Logger) *Paginator[T] {
	if logger != nil {
		p.logger = logger
	}

	return p
}

// WithMetrics records paginations, query durations and errors into m.
func (p *Paginator[T]) WithMetrics(m *Metrics) *Paginator[T] {
	p.metrics = m

	return p
}

// WithParallelQueries issues the count, boundary and page queries
// concurrently. The first failure cancels the others and fails the call.
func (p *Paginator[T]) WithParallelQueries() *Paginator[T] {
	p.parallel = true

	return p
}

// Validate checks options, cursors and getters without touching the store.
func (p *Paginator[T]) Validate() error {
	_, err := p.plan()

	return err
}

// pagingPlan is the state derived once per call.
type pagingPlan struct {
	opts      PaginatorOptions
	seek      PaginationFilters
	operator  Operator
	backward  bool
	hasAfter  bool
	hasBefore bool
}

// isBackward reports whether the page is fetched in flipped order: when paging
// with before, or with no cursor at all towards the PREVIOUS end.
func isBackward(opts PaginatorOptions) bool {
	switch {
	case opts.AfterCursor != "":
		return false
	case opts.BeforeCursor != "":
		return true
	default:
		return opts.Direction == PagingPrevious
	}
}

func (p *Paginator[T]) plan() (*pagingPlan, error) {
	opts := p.opts.normalized()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	if err := p.getters.validate(opts.Keys); err != nil {
		return nil, invalidOptionsf("%v", err)
	}

	after, err := decodeSeekCursor(opts.AfterCursor, opts.Keys)
	if err != nil {
		return nil, err
	}

	before, err := decodeSeekCursor(opts.BeforeCursor, opts.Keys)
	if err != nil {
		return nil, err
	}

	plan := &pagingPlan{
		opts:      opts,
		operator:  OperatorEQ,
		backward:  isBackward(opts),
		hasAfter:  after != nil,
		hasBefore: before != nil,
	}

	switch {
	case after != nil:
		plan.seek = after
		plan.operator = opts.Order.ForOperator()
	case before != nil:
		plan.seek = before
		plan.operator = opts.Order.ForOperator().Flip()
	}

	return plan, nil
}

func decodeSeekCursor(cursor string, keys []string) (PaginationFilters, error) {
	filters, err := DecodeCursor(cursor)
	if err != nil || filters == nil {
		return nil, err
	}

	if err = filters.matches(keys); err != nil {
		return nil, newMalformedCursorError(cursor, err)
	}

	return filters, nil
}

func (pl *pagingPlan) pageOrder() Direction {
	return lo.Ternary(pl.backward, pl.opts.Order.Flip(), pl.opts.Order)
}

func (pl *pagingPlan) pagingDirection() PagingDirection {
	return lo.Ternary(pl.backward, PagingPrevious, PagingNext)
}

type pageFetch[T any] struct {
	total int64
	first []T
	last  []T
	rows  []T
}

// Paginate runs the request against clones of db and assembles the page.
// Configuration and cursor errors are returned before any query is issued.
// Store errors fail the whole call.
func (p *Paginator[T]) Paginate(ctx context.Context, db *gorm.DB) (result *PaginationResult[T], err error) {
	plan, err := p.plan()
	if err != nil {
		err = fmt.Errorf("cannot paginate: %w", err)
		p.metrics.recordPagination(lo.Ternary(isBackward(p.opts), PagingPrevious, PagingNext), err)
		p.logger.ErrorContext(ctx, "Pagination error",
			"error", err.Error(),
			"error_type", classifyError(err))

		return nil, err
	}

	ctx, span := startSpan(ctx, "gorelay.Paginate",
		attribute.String("gorelay.direction", string(plan.pagingDirection())),
		attribute.String("gorelay.operator", string(plan.operator)),
		attribute.Int("gorelay.limit", plan.opts.Limit),
		attribute.StringSlice("gorelay.keys", plan.opts.Keys),
	)
	defer func() {
		endSpan(span, err)
		p.metrics.recordPagination(plan.pagingDirection(), err)
	}()

	p.logger.DebugContext(ctx, "Paginating",
		"direction", plan.pagingDirection(),
		"operator", plan.operator,
		"order", plan.pageOrder(),
		"limit", plan.opts.Limit,
		"keys", plan.opts.Keys,
		"parallel", p.parallel)

	var fetched *pageFetch[T]
	if p.parallel {
		fetched, err = p.fetchParallel(ctx, db, plan)
	} else {
		fetched, err = p.fetchSequential(ctx, db, plan)
	}
	if err != nil {
		p.logger.ErrorContext(ctx, "Pagination error",
			"direction", plan.pagingDirection(),
			"limit", plan.opts.Limit,
			"error", err.Error(),
			"error_type", classifyError(err))

		return nil, err
	}

	return p.assemble(plan, fetched)
}

func (p *Paginator[T]) fetchSequential(ctx context.Context, db *gorm.DB, plan *pagingPlan) (*pageFetch[T], error) {
	var (
		fetched pageFetch[T]
		err     error
	)

	if fetched.total, err = p.countQuery(ctx, db); err != nil {
		return nil, err
	}
	if fetched.first, err = p.boundaryQuery(ctx, db, plan.opts.Keys, plan.opts.Order); err != nil {
		return nil, err
	}
	if fetched.last, err = p.boundaryQuery(ctx, db, plan.opts.Keys, plan.opts.Order.Flip()); err != nil {
		return nil, err
	}
	if fetched.rows, err = p.pageQuery(ctx, db, plan); err != nil {
		return nil, err
	}

	return &fetched, nil
}

func (p *Paginator[T]) fetchParallel(ctx context.Context, db *gorm.DB, plan *pagingPlan) (*pageFetch[T], error) {
	var fetched pageFetch[T]

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		fetched.total, err = p.countQuery(egCtx, db)
		return err
	})
	eg.Go(func() (err error) {
		fetched.first, err = p.boundaryQuery(egCtx, db, plan.opts.Keys, plan.opts.Order)
		return err
	})
	eg.Go(func() (err error) {
		fetched.last, err = p.boundaryQuery(egCtx, db, plan.opts.Keys, plan.opts.Order.Flip())
		return err
	})
	eg.Go(func() (err error) {
		fetched.rows, err = p.pageQuery(egCtx, db, plan)
		return err
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return &fetched, nil
}

// countQuery counts the filtered set: no seek predicate, order or limit.
func (p *Paginator[T]) countQuery(ctx context.Context, db *gorm.DB) (total int64, err error) {
	ctx, span := startSpan(ctx, "gorelay.count")
	defer func() { endSpan(span, err) }()
	defer p.metrics.observeQuery(queryCount, time.Now())

	if err = cloneDB(db).WithContext(ctx).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count query: %w", err)
	}

	return total, nil
}

// boundaryQuery fetches the single first row of the filtered set in the given
// order, ignoring any cursor.
func (p *Paginator[T]) boundaryQuery(ctx context.Context, db *gorm.DB, keys []string, order Direction) (rows []T, err error) {
	ctx, span := startSpan(ctx, "gorelay.boundary", attribute.String("gorelay.order", string(order)))
	defer func() { endSpan(span, err) }()
	defer p.metrics.observeQuery(queryBoundary, time.Now())

	query := NewPaginationQuery(db).
		OrderBy(keys, order).
		Take(1).
		Build()

	rows = make([]T, 0, 1)
	if err = query.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("boundary query: %w", err)
	}

	return rows, nil
}

// pageQuery fetches the window: seek predicate, effective order and limit.
func (p *Paginator[T]) pageQuery(ctx context.Context, db *gorm.DB, plan *pagingPlan) (rows []T, err error) {
	ctx, span := startSpan(ctx, "gorelay.page")
	defer func() { endSpan(span, err) }()
	defer p.metrics.observeQuery(queryPage, time.Now())

	query := NewPaginationQuery(db).
		Filter(plan.seek, plan.operator).
		OrderBy(plan.opts.Keys, plan.pageOrder()).
		Take(plan.opts.Limit).
		Build()

	rows = make([]T, 0, plan.opts.Limit)
	if err = query.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("page query: %w", err)
	}

	return rows, nil
}

func (p *Paginator[T]) assemble(plan *pagingPlan, fetched *pageFetch[T]) (*PaginationResult[T], error) {
	keys := plan.opts.Keys

	rows := fetched.rows
	// Backward pages are read in flipped order.
	if plan.backward {
		slices.Reverse(rows)
	}

	edges := make([]PaginationEdge[T], 0, len(rows))
	for _, row := range rows {
		cursor, err := p.getters.Cursor(row, keys)
		if err != nil {
			return nil, fmt.Errorf("cannot build cursor: %w", err)
		}

		edges = append(edges, PaginationEdge[T]{Cursor: cursor, Node: row})
	}

	var (
		pageInfo PageInfo
		err      error
	)

	if len(fetched.first) > 0 {
		if pageInfo.StartCursor, err = p.getters.Cursor(fetched.first[0], keys); err != nil {
			return nil, fmt.Errorf("cannot build start cursor: %w", err)
		}
	}
	if len(fetched.last) > 0 {
		if pageInfo.EndCursor, err = p.getters.Cursor(fetched.last[0], keys); err != nil {
			return nil, fmt.Errorf("cannot build end cursor: %w", err)
		}
	}

	// A neighbour exists only if the page is full or was not bounded on that
	// side, and its edge row is not the absolute boundary row.
	if len(edges) > 0 {
		full := len(edges) == plan.opts.Limit
		pageInfo.HasNextPage = (full || !plan.hasAfter) && edges[len(edges)-1].Cursor != pageInfo.EndCursor
		pageInfo.HasPreviousPage = (full || !plan.hasBefore) && edges[0].Cursor != pageInfo.StartCursor
	}

	return &PaginationResult[T]{
		Edges:      edges,
		TotalCount: fetched.total,
		PageInfo:   pageInfo,
	}, nil
}
