package gorelay

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Metrics_Paginate(t *testing.T) {
	db := newSQLiteDB(t)
	seedMessages(t, db, 3)

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	_, err := NewPaginator(messageOptions(DirectionASC), _messageGetters).
		WithMetrics(m).
		Paginate(context.Background(), db.Model(&tMessage{}))
	require.NoError(t, err)

	opts := messageOptions(DirectionASC)
	opts.BeforeCursor = "%%%"
	_, err = NewPaginator(opts, _messageGetters).
		WithMetrics(m).
		Paginate(context.Background(), db.Model(&tMessage{}))
	require.Error(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.paginations.WithLabelValues("NEXT", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.paginations.WithLabelValues("PREVIOUS", "error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.errors.WithLabelValues(errorTypeCursor)))

	// count, boundary and page
	assert.Equal(t, 3, testutil.CollectAndCount(m.queryDuration))

	count, err := testutil.GatherAndCount(reg, "gorelay_paginations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func Test_Metrics_Nil(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.recordPagination(PagingNext, nil)
		m.recordPagination(PagingNext, errors.New("x"))
	})
}

func Test_classifyError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("cannot paginate: %w", newMalformedCursorError("x", errors.New("bad"))), errorTypeCursor},
		{invalidOptionsf("bad limit"), errorTypeValidation},
		{invalidFilterf("bad node"), errorTypeValidation},
		{fmt.Errorf("page query: %w", context.DeadlineExceeded), errorTypeTimeout},
		{fmt.Errorf("count query: %w", context.Canceled), errorTypeTimeout},
		{errors.New("connection reset"), errorTypeDatabase},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, classifyError(tt.err))
		})
	}
}
