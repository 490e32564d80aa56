package expander

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

type stubProvider struct {
	text string
	err  error
}

func (s *stubProvider) GenerateText(ctx context.Context, system, prompt string) (string, error) {
	return s.text, s.err
}

func (s *stubProvider) Name() string { return "stub" }

func TestExpand(t *testing.T) {
	provider := &stubProvider{
		text: `{"search_queries": ["Apple stock surge", "AAPL earnings call", "Apple analyst rating"]}`,
	}
	service := NewService(provider, time.Second, arbor.NewLogger())

	queries, err := service.Expand(context.Background(), "Apple Inc", "Technology")
	require.NoError(t, err)
	assert.Equal(t, []string{"Apple stock surge", "AAPL earnings call", "Apple analyst rating"}, queries)
}

func TestExpandTrimsToFive(t *testing.T) {
	provider := &stubProvider{
		text: `{"search_queries": ["a", "b", "c", "d", "e", "f", "g"]}`,
	}
	service := NewService(provider, time.Second, arbor.NewLogger())

	queries, err := service.Expand(context.Background(), "Apple Inc", "Technology")
	require.NoError(t, err)
	assert.Len(t, queries, 5)
}

func TestExpandStripsCodeFences(t *testing.T) {
	provider := &stubProvider{
		text: "```json\n{\"search_queries\": [\"q1\"]}\n```",
	}
	service := NewService(provider, time.Second, arbor.NewLogger())

	queries, err := service.Expand(context.Background(), "Apple Inc", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"q1"}, queries)
}

func TestExpandFallsBackOnProviderError(t *testing.T) {
	provider := &stubProvider{err: errors.New("quota exceeded")}
	service := NewService(provider, time.Second, arbor.NewLogger())

	queries, err := service.Expand(context.Background(), "Apple Inc", "Technology")
	require.NoError(t, err)
	assert.Equal(t, FallbackQueries("Apple Inc"), queries)
}

func TestExpandFallsBackOnGarbageOutput(t *testing.T) {
	provider := &stubProvider{text: "I cannot help with that."}
	service := NewService(provider, time.Second, arbor.NewLogger())

	queries, err := service.Expand(context.Background(), "Apple Inc", "Technology")
	require.NoError(t, err)
	assert.Equal(t, FallbackQueries("Apple Inc"), queries)
}

func TestExpandWithoutProvider(t *testing.T) {
	service := NewService(nil, time.Second, arbor.NewLogger())

	queries, err := service.Expand(context.Background(), "Nvidia", "Semiconductors")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Nvidia stock",
		"Nvidia earnings",
		"Nvidia price target",
		"Nvidia news",
		"Nvidia forecast",
	}, queries)
}
