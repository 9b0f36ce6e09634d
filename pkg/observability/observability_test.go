package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	require.Equal(t, "agiaef", config.ServiceName)
	require.Equal(t, "localhost:4317", config.OTLPEndpoint)
	require.Equal(t, 1.0, config.SampleRate)
	require.False(t, config.Enabled)
}

func TestNewProviderDisabled(t *testing.T) {
	p, err := New(context.Background(), &Config{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, p)
	require.NotNil(t, p.Tracer())
	require.NotNil(t, p.Meter())
}

func TestNewProviderNilConfig(t *testing.T) {
	p, err := New(context.Background(), nil)
	require.NoError(t, err)
	require.NotNil(t, p)
}

func TestTrackOperation(t *testing.T) {
	p, err := New(context.Background(), &Config{Enabled: false})
	require.NoError(t, err)

	ctx, finish := p.TrackOperation(context.Background(), "assessment.run",
		AssessmentOperation("Atlas", "comprehensive", true)...)
	require.NotNil(t, ctx)
	time.Sleep(time.Millisecond)
	finish(nil)
}

func TestTrackOperationWithError(t *testing.T) {
	p, err := New(context.Background(), &Config{Enabled: false})
	require.NoError(t, err)

	_, finish := p.TrackOperation(context.Background(), "assessment.dimension",
		DimensionOperation("safety_alignment")...)
	finish(errors.New("probe offline"))
}

func TestRecordAssessmentDisabled(t *testing.T) {
	p, err := New(context.Background(), &Config{Enabled: false})
	require.NoError(t, err)

	// no instruments: must be a no-op
	p.RecordAssessment(context.Background(), 140, "CONDITIONAL", map[string]float64{"innovation": 55})
	p.RecordError(context.Background(), errors.New("x"), attribute.String("k", "v"))
	p.RecordDuration(context.Background(), time.Second)
}

func TestShutdownDisabled(t *testing.T) {
	p, err := New(context.Background(), &Config{Enabled: false})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Shutdown(ctx))
}

func TestAttributes(t *testing.T) {
	attrs := AssessmentOperation("Atlas", "quick", false)
	require.Len(t, attrs, 3)
	require.Equal(t, "agiaef.system", string(attrs[0].Key))
	require.Equal(t, "Atlas", attrs[0].Value.AsString())
	require.False(t, attrs[2].Value.AsBool())

	require.Equal(t, "safety_alignment", DimensionOperation("safety_alignment")[0].Value.AsString())
}

func TestSpanHelpers(t *testing.T) {
	ctx := context.Background()
	AddSpanEvent(ctx, "dimension.assessed", AttrDimension.String("communication"))
	SetSpanStatus(ctx, errors.New("boom"))
	SetSpanStatus(ctx, nil)
}
