package lessons

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	exact     map[string]ContextItem
	search    []ContextItem
	exactErr  error
	searchErr error

	exactCalls  []Coordinates
	searchCalls []SearchQuery
}

func coordKey(c Coordinates) string {
	if c.Topic != nil {
		return joinLesson(c.Unit, *c.Topic) + "/" + joinLesson(*c.Topic, c.Lesson)
	}
	return joinLesson(c.Unit, c.Lesson)
}

func (f *fakeStore) FetchExact(_ context.Context, c Coordinates) (*ContextItem, error) {
	f.exactCalls = append(f.exactCalls, c)
	if f.exactErr != nil {
		return nil, f.exactErr
	}
	if it, ok := f.exact[coordKey(c)]; ok {
		return &it, nil
	}
	return nil, nil
}

func (f *fakeStore) Search(_ context.Context, q SearchQuery) ([]ContextItem, error) {
	f.searchCalls = append(f.searchCalls, q)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.search, nil
}

func TestResolve_ParsesCoordinatesFromMessage(t *testing.T) {
	fs := &fakeStore{exact: map[string]ContextItem{
		"2.3": {Unit: intPtr(2), Lesson: "1.3", Title: "Funciones"},
	}}
	r := NewRetriever(fs, nil)

	items := r.Resolve(context.Background(), Request{Message: "unidad 2 leccion 3, explica el tema"})

	require.Len(t, items, 1)
	assert.Equal(t, "Funciones", items[0].Title)
	require.NotEmpty(t, fs.exactCalls)
	assert.Equal(t, 2, fs.exactCalls[0].Unit)
	assert.Equal(t, 3, fs.exactCalls[0].Lesson)
	assert.Nil(t, fs.exactCalls[0].Topic)
	assert.Empty(t, fs.searchCalls)
}

func TestResolve_RequestFieldsWin(t *testing.T) {
	fs := &fakeStore{}
	r := NewRetriever(fs, nil)

	r.Resolve(context.Background(), Request{
		Message: "unidad 2 leccion 3",
		Unit:    intPtr(5),
		Lesson:  intPtr(7),
	})

	require.NotEmpty(t, fs.exactCalls)
	assert.Equal(t, 5, fs.exactCalls[0].Unit)
	assert.Equal(t, 7, fs.exactCalls[0].Lesson)
}

func TestResolve_RetriesWithTopicLessonText(t *testing.T) {
	fs := &fakeStore{exact: map[string]ContextItem{
		"4.2/2.5": {Unit: intPtr(4), Lesson: "2.5", Title: "Limites"},
	}}
	r := NewRetriever(fs, nil)

	items := r.Resolve(context.Background(), Request{Message: "leccion 2.5", Unit: intPtr(4)})

	require.Len(t, items, 1)
	assert.Equal(t, "Limites", items[0].Title)
	require.Len(t, fs.exactCalls, 2)
	require.NotNil(t, fs.exactCalls[1].Topic)
	assert.Equal(t, 2, *fs.exactCalls[1].Topic)
	assert.Equal(t, 5, fs.exactCalls[1].Lesson)
}

func TestResolve_SearchFallbackDedupesAndLimits(t *testing.T) {
	fs := &fakeStore{search: []ContextItem{
		{Unit: intPtr(1), Lesson: "1.1", Title: "Conicas"},
		{Unit: intPtr(1), Lesson: "1.1", Title: "Conicas"},
		{Unit: intPtr(1), Lesson: "1.2", Title: "Hiperbola"},
		{Unit: intPtr(1), Lesson: "1.3", Title: "Elipse"},
	}}
	r := NewRetriever(fs, nil)

	items := r.Resolve(context.Background(), Request{Message: "hiperbola", Query: "conicas", Limit: 2})

	require.Len(t, items, 2)
	assert.Equal(t, "Conicas", items[0].Title)
	assert.Equal(t, "Hiperbola", items[1].Title)
	require.Len(t, fs.searchCalls, 1)
	assert.Equal(t, "conicas", fs.searchCalls[0].Text)
	assert.Equal(t, 2, fs.searchCalls[0].Limit)
}

func TestResolve_DefaultLimitIsOne(t *testing.T) {
	fs := &fakeStore{search: []ContextItem{{Title: "a"}, {Title: "b"}}}
	r := NewRetriever(fs, nil)

	items := r.Resolve(context.Background(), Request{Message: "derivadas"})
	assert.Len(t, items, 1)
	assert.Equal(t, 1, fs.searchCalls[0].Limit)
}

func TestResolve_StoreErrorsMeanNoContext(t *testing.T) {
	fs := &fakeStore{
		exactErr:  errors.New("connection refused"),
		searchErr: errors.New("connection refused"),
	}
	r := NewRetriever(fs, nil)

	items := r.Resolve(context.Background(), Request{Message: "unidad 1 leccion 1"})
	assert.Empty(t, items)
	assert.NotEmpty(t, fs.searchCalls)
}

func TestResolve_NilRetriever(t *testing.T) {
	var r *Retriever
	assert.Nil(t, r.Resolve(context.Background(), Request{Message: "x"}))
}

func TestNormalizeLessonNumber(t *testing.T) {
	tests := []struct{ in, want string }{
		{"2.3", "2.3"},
		{" 2 / 3 ", "2.3"},
		{"2-3", "2.3"},
		{"7", "7"},
	}
	for _, tt := range tests {
		if got := NormalizeLessonNumber(tt.in); got != tt.want {
			t.Errorf("NormalizeLessonNumber(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
