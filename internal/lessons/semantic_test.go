package lessons

import (
	"context"
	"errors"
	"testing"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	err   error
	texts []string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.texts = append(f.texts, text)
	if f.err != nil {
		return nil, f.err
	}
	return []float32{float32(len(text)), 1}, nil
}

type fakeIndex struct {
	results []ContextItem
	err     error
	stored  []ContextItem
	unit    *int
}

func (f *fakeIndex) Search(_ context.Context, _ []float32, unit *int, _ int) ([]ContextItem, error) {
	f.unit = unit
	return f.results, f.err
}

func (f *fakeIndex) Upsert(_ context.Context, _ []float32, item ContextItem) error {
	f.stored = append(f.stored, item)
	return nil
}

func TestSemanticStore_UsesVectorResults(t *testing.T) {
	base := &fakeStore{search: []ContextItem{{Title: "texto"}}}
	idx := &fakeIndex{results: []ContextItem{{Title: "vector"}}}
	s := NewSemanticStore(base, idx, &fakeEmbedder{}, nil)

	items, err := s.Search(context.Background(), SearchQuery{Text: "hiperbola", Unit: intPtr(2), Limit: 1})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "vector", items[0].Title)
	assert.Equal(t, 2, *idx.unit)
	assert.Empty(t, base.searchCalls)
}

func TestSemanticStore_FallsBackToBase(t *testing.T) {
	tests := []struct {
		name     string
		embedder *fakeEmbedder
		index    *fakeIndex
	}{
		{"embed error", &fakeEmbedder{err: errors.New("quota")}, &fakeIndex{}},
		{"index error", &fakeEmbedder{}, &fakeIndex{err: errors.New("unavailable")}},
		{"no vector hits", &fakeEmbedder{}, &fakeIndex{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := &fakeStore{search: []ContextItem{{Title: "texto"}}}
			s := NewSemanticStore(base, tt.index, tt.embedder, nil)

			items, err := s.Search(context.Background(), SearchQuery{Text: "hiperbola"})
			require.NoError(t, err)
			require.Len(t, items, 1)
			assert.Equal(t, "texto", items[0].Title)
		})
	}
}

func TestSemanticStore_FetchExactDelegates(t *testing.T) {
	base := &fakeStore{exact: map[string]ContextItem{"1.1": {Title: "base"}}}
	s := NewSemanticStore(base, &fakeIndex{}, &fakeEmbedder{}, nil)

	it, err := s.FetchExact(context.Background(), Coordinates{Unit: 1, Lesson: 1})
	require.NoError(t, err)
	require.NotNil(t, it)
	assert.Equal(t, "base", it.Title)
}

func TestSemanticStore_Index(t *testing.T) {
	idx := &fakeIndex{}
	emb := &fakeEmbedder{}
	s := NewSemanticStore(&fakeStore{}, idx, emb, nil)

	n, err := s.Index(context.Background(), []ContextItem{
		{Unit: intPtr(1), Lesson: "1.1", Title: "Potencias", Theory: "  "},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, idx.stored, 1)
	assert.Equal(t, []string{"Potencias"}, emb.texts)
}

func TestQdrantPayload(t *testing.T) {
	in := ContextItem{Unit: intPtr(4), Lesson: "2.1", Title: "Logaritmos", Formulas: "log(ab) = log a + log b"}

	out := itemFromPayload(qdrant.NewValueMap(itemPayload(in)))
	assert.Equal(t, in, out)

	assert.Equal(t, pointID(in), pointID(ContextItem{Unit: intPtr(4), Lesson: "2-1"}))
	assert.NotEqual(t, pointID(in), pointID(ContextItem{Unit: intPtr(5), Lesson: "2.1"}))
}
