package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func recorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return sr
}

func attr(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestInitTracerDisabled(t *testing.T) {
	tp, err := InitTracer(context.Background(), Config{Enabled: false})
	assert.NoError(t, err)
	assert.Nil(t, tp)

	_, err = InitTracer(context.Background(), Config{Enabled: true})
	assert.Error(t, err)
}

type traceRow struct {
	ID   uint
	Name string
}

func TestGORMTracingPlugin(t *testing.T) {
	sr := recorder(t)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&traceRow{}))
	require.NoError(t, db.Use(GORMTracingPlugin()))

	// untraced contexts produce no spans
	require.NoError(t, db.Create(&traceRow{Name: "a"}).Error)
	assert.Empty(t, sr.Ended())

	ctx, parent := otel.Tracer("test").Start(context.Background(), "request")
	require.NoError(t, db.WithContext(ctx).Create(&traceRow{Name: "b"}).Error)
	var row traceRow
	err = db.WithContext(ctx).Where("name = ?", "missing").First(&row).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	parent.End()

	var names []string
	for _, s := range sr.Ended() {
		names = append(names, s.Name())
		if s.Name() == "db.select" {
			assert.NotEqual(t, codes.Error, s.Status().Code)
			system, ok := attr(s.Attributes(), "db.system")
			require.True(t, ok)
			assert.Equal(t, "sqlite", system.AsString())
		}
	}
	assert.Contains(t, names, "db.insert")
	assert.Contains(t, names, "db.select")
}

type fakeRetryable struct{ retry bool }

func (f fakeRetryable) Error() string   { return "upstream" }
func (f fakeRetryable) Retryable() bool { return f.retry }

func TestTracePublishAndEndSpan(t *testing.T) {
	sr := recorder(t)
	be := NewBusinessEvents()

	_, span := be.TracePublish(context.Background(), PublishAttrs{JobID: "j1", Platform: "twitter", Attempt: 2})
	EndSpan(span, fakeRetryable{retry: true})

	_, ok := be.TracePlanGeneration(context.Background(), "b1", 2, 7)
	EndSpan(ok, nil)

	spans := sr.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "publish.twitter", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	retry, found := attr(spans[0].Attributes(), "error.retryable")
	require.True(t, found)
	assert.True(t, retry.AsBool())
	attempt, _ := attr(spans[0].Attributes(), "publish.attempt")
	assert.Equal(t, int64(2), attempt.AsInt64())

	assert.Equal(t, codes.Ok, spans[1].Status().Code)
}

func TestEndSpanPlainError(t *testing.T) {
	sr := recorder(t)
	_, span := TraceS3Call(context.Background(), "get_object", "bucket", "media/x.png")
	EndSpan(span, errors.New("boom"))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	_, found := attr(spans[0].Attributes(), "error.retryable")
	assert.False(t, found)
}

func TestInstrumentedClientPropagatesContext(t *testing.T) {
	sr := recorder(t)
	prevProp := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prevProp) })

	var traceparent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceparent = r.Header.Get("traceparent")
	}))
	defer srv.Close()

	client := NewInstrumentedHTTPClient(HTTPClientConfig{ServiceName: "llm"})
	ctx, parent := otel.Tracer("test").Start(context.Background(), "request")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/chat", nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	parent.End()

	assert.NotEmpty(t, traceparent)

	var names []string
	for _, s := range sr.Ended() {
		names = append(names, s.Name())
	}
	assert.Contains(t, names, "llm GET /chat")
}
