package lessons

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
)

// Embedder turns text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex stores lesson embeddings and finds the nearest ones.
type VectorIndex interface {
	Search(ctx context.Context, vector []float32, unit *int, limit int) ([]ContextItem, error)
	Upsert(ctx context.Context, vector []float32, item ContextItem) error
}

// SemanticStore answers exact lookups from a base store and searches by
// embedding similarity, falling back to the base text search when the
// vector lookup fails or finds nothing.
type SemanticStore struct {
	base     Store
	index    VectorIndex
	embedder Embedder
	logger   *zap.Logger
}

// NewSemanticStore wraps base with a vector search.
func NewSemanticStore(base Store, index VectorIndex, embedder Embedder, logger *zap.Logger) *SemanticStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SemanticStore{base: base, index: index, embedder: embedder, logger: logger}
}

func (s *SemanticStore) FetchExact(ctx context.Context, c Coordinates) (*ContextItem, error) {
	return s.base.FetchExact(ctx, c)
}

func (s *SemanticStore) Search(ctx context.Context, q SearchQuery) ([]ContextItem, error) {
	items, err := s.searchVectors(ctx, q)
	if err != nil {
		s.logger.Warn("semantic lesson search failed, using text search", zap.Error(err))
	}
	if len(items) > 0 {
		return items, nil
	}
	return s.base.Search(ctx, q)
}

func (s *SemanticStore) searchVectors(ctx context.Context, q SearchQuery) ([]ContextItem, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, nil
	}
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	items, err := s.index.Search(ctx, vec, q.Unit, max(1, q.Limit))
	if err != nil {
		return nil, err
	}
	return Dedupe(items), nil
}

// Index embeds and stores items so Search can find them.
func (s *SemanticStore) Index(ctx context.Context, items []ContextItem) (int, error) {
	for i, it := range items {
		vec, err := s.embedder.Embed(ctx, embeddingText(it))
		if err != nil {
			return i, fmt.Errorf("embed lesson %s: %w", it.LessonLabel(), err)
		}
		if err := s.index.Upsert(ctx, vec, it); err != nil {
			return i, err
		}
	}
	return len(items), nil
}

func embeddingText(it ContextItem) string {
	parts := []string{it.Title, it.Topic, it.Objective, it.Theory, it.Formulas}
	var b strings.Builder
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(p)
		}
	}
	return b.String()
}

// QdrantConfig holds Qdrant connection configuration.
type QdrantConfig struct {
	// URL is the Qdrant gRPC address, e.g. "http://localhost:6334".
	URL            string
	APIKey         string
	CollectionName string
	VectorSize     uint64
}

// QdrantIndex implements VectorIndex on a Qdrant collection.
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
	size       uint64
}

// NewQdrantIndex connects to Qdrant.
func NewQdrantIndex(cfg QdrantConfig) (*QdrantIndex, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant url is required")
	}
	if cfg.CollectionName == "" {
		cfg.CollectionName = "lessons"
	}

	raw := cfg.URL
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse qdrant url: %w", err)
	}
	port := 6334
	if u.Port() != "" {
		if port, err = strconv.Atoi(u.Port()); err != nil {
			return nil, fmt.Errorf("invalid port: %w", err)
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   u.Hostname(),
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: u.Scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}
	return &QdrantIndex{client: client, collection: cfg.CollectionName, size: cfg.VectorSize}, nil
}

// EnsureCollection creates the collection with cosine distance if it does
// not exist yet.
func (q *QdrantIndex) EnsureCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if exists {
		return nil
	}
	if q.size == 0 {
		return fmt.Errorf("vector size is required to create collection %q", q.collection)
	}
	return q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.size,
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

func (q *QdrantIndex) Search(ctx context.Context, vector []float32, unit *int, limit int) ([]ContextItem, error) {
	n := uint64(max(1, limit))
	req := &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &n,
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if unit != nil {
		req.Filter = &qdrant.Filter{Must: []*qdrant.Condition{qdrant.NewMatchInt("unidad", int64(*unit))}}
	}

	points, err := q.client.Query(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}
	items := make([]ContextItem, 0, len(points))
	for _, p := range points {
		items = append(items, itemFromPayload(p.GetPayload()))
	}
	return items, nil
}

func (q *QdrantIndex) Upsert(ctx context.Context, vector []float32, item ContextItem) error {
	wait := true
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Wait:           &wait,
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewID(pointID(item).String()),
			Vectors: qdrant.NewVectors(vector...),
			Payload: qdrant.NewValueMap(itemPayload(item)),
		}},
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

// Close releases the gRPC connection.
func (q *QdrantIndex) Close() error {
	return q.client.Close()
}

var lessonNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("mathibot/lessons"))

// pointID is stable per (unit, normalized lesson number).
func pointID(it ContextItem) uuid.UUID {
	return uuid.NewSHA1(lessonNamespace, []byte(it.UnitLabel()+"/"+NormalizeLessonNumber(it.Lesson)))
}

func itemPayload(it ContextItem) map[string]any {
	p := map[string]any{
		"leccion":     it.Lesson,
		"tema":        it.Topic,
		"titulo":      it.Title,
		"teoria":      it.Theory,
		"objetivo":    it.Objective,
		"formulas":    it.Formulas,
		"actividades": it.Activities,
	}
	if it.Unit != nil {
		p["unidad"] = *it.Unit
	}
	return p
}

func itemFromPayload(p map[string]*qdrant.Value) ContextItem {
	str := func(k string) string {
		if v, ok := p[k]; ok {
			return v.GetStringValue()
		}
		return ""
	}
	it := ContextItem{
		Lesson:     str("leccion"),
		Topic:      str("tema"),
		Title:      str("titulo"),
		Theory:     str("teoria"),
		Objective:  str("objetivo"),
		Formulas:   str("formulas"),
		Activities: str("actividades"),
	}
	if v, ok := p["unidad"]; ok {
		it.Unit = intPtr(int(v.GetIntegerValue()))
	}
	return it
}
