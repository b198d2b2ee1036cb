package gorelay

import (
	"context"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = provider.Shutdown(context.Background())
	})

	return recorder
}

func Test_Paginator_Paginate_Spans(t *testing.T) {
	recorder := withSpanRecorder(t)

	db := newSQLiteDB(t)
	seedMessages(t, db, 3)

	_, err := NewPaginator(messageOptions(DirectionASC), _messageGetters).
		Paginate(context.Background(), db.Model(&tMessage{}))
	require.NoError(t, err)

	spans := recorder.Ended()
	names := lo.Map(spans, func(s sdktrace.ReadOnlySpan, _ int) string { return s.Name() })
	assert.ElementsMatch(t, []string{
		"gorelay.count",
		"gorelay.boundary",
		"gorelay.boundary",
		"gorelay.page",
		"gorelay.Paginate",
	}, names)

	root, ok := lo.Find(spans, func(s sdktrace.ReadOnlySpan) bool { return s.Name() == "gorelay.Paginate" })
	require.True(t, ok)
	for _, s := range spans {
		if s.Name() != "gorelay.Paginate" {
			assert.Equal(t, root.SpanContext().SpanID(), s.Parent().SpanID(), s.Name())
		}
	}
}

func Test_Paginator_Paginate_SpanError(t *testing.T) {
	recorder := withSpanRecorder(t)

	_, db, _, err := newGORMMySQLMock()
	require.NoError(t, err)

	// No expectations: the count query fails.
	_, err = NewPaginator(messageOptions(DirectionASC), _messageGetters).
		Paginate(context.Background(), db.Model(&tMessage{}))
	require.Error(t, err)

	spans := recorder.Ended()
	root, ok := lo.Find(spans, func(s sdktrace.ReadOnlySpan) bool { return s.Name() == "gorelay.Paginate" })
	require.True(t, ok)
	assert.Equal(t, codes.Error, root.Status().Code)
}
