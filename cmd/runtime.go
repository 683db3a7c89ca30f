package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/mathibot/internal/chat"
	"github.com/abhisek/mathibot/internal/config"
	"github.com/abhisek/mathibot/internal/lessons"
	"github.com/abhisek/mathibot/internal/llm"
	"github.com/abhisek/mathibot/internal/session"
	"github.com/abhisek/mathibot/internal/store"
)

// runtime holds the dependencies shared by the commands.
type runtime struct {
	cfg    *config.Config
	logger *zap.Logger

	store    *store.Store
	provider llm.Provider
	llmCfg   llm.Config

	// sqlLessons is set for the sqlite driver; it accepts imports.
	sqlLessons *lessons.SQLStore
	lessons    lessons.Store
	semantic   *lessons.SemanticStore
	index      *lessons.QdrantIndex

	redis    *redis.Client
	sessions session.Store
	locker   *session.Locker
	chat     *chat.Service
}

// openRuntime loads the config and opens every store. A missing LLM
// provider is not fatal; turns are then answered by the fallback composer.
func openRuntime(cmd *cobra.Command, log *zap.Logger) (*runtime, error) {
	if log == nil {
		log = zap.NewNop()
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return nil, err
	}

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	rt := &runtime{cfg: cfg, logger: log, store: st, locker: session.NewLocker()}
	rt.provider, rt.llmCfg = newProvider(ctx, cfg, st.EventRepo(), log)

	if err := rt.openLessons(); err != nil {
		rt.Close()
		return nil, err
	}
	if err := rt.openSessions(); err != nil {
		rt.Close()
		return nil, err
	}

	rt.chat = chat.NewService(rt.provider, rt.sessions, rt.locker,
		lessons.NewRetriever(rt.lessons, log), rt.chatConfig(), log)
	return rt, nil
}

func newProvider(ctx context.Context, cfg *config.Config, repo store.EventRepo, log *zap.Logger) (llm.Provider, llm.Config) {
	llmCfg := llm.ConfigFromEnv()
	cfg.ApplyLLM(&llmCfg)
	if err := llmCfg.Validate(); err != nil {
		discovered, ok := llm.DiscoverConfig()
		if !ok {
			log.Warn("LLM provider not configured, answering with fallbacks", zap.Error(err))
			return nil, llmCfg
		}
		discovered.Models = llmCfg.Models
		discovered.ModelFallbacks = llmCfg.ModelFallbacks
		discovered.Timeout = llmCfg.Timeout
		discovered.MaxTokens = llmCfg.MaxTokens
		discovered.Temperature = llmCfg.Temperature
		llmCfg = discovered
	}

	provider, err := llm.NewProvider(ctx, llmCfg, repo, log)
	if err != nil {
		log.Warn("LLM provider unavailable, answering with fallbacks", zap.Error(err))
		return nil, llmCfg
	}
	log.Debug("LLM provider ready", zap.String("provider", llmCfg.Provider))
	return provider, llmCfg
}

func (rt *runtime) openLessons() error {
	lc := rt.cfg.Lessons
	switch lc.Driver {
	case "supabase":
		s, err := lessons.NewSupabaseStore(lessons.SupabaseConfig{
			URL:    lc.Supabase.URL,
			APIKey: lc.Supabase.APIKey,
			Table:  lc.Supabase.Table,
		})
		if err != nil {
			return fmt.Errorf("open supabase lessons: %w", err)
		}
		rt.lessons = s
	default:
		rt.sqlLessons = lessons.NewSQLStore(rt.store.DB())
		rt.lessons = rt.sqlLessons
	}

	if !lc.Semantic.Enabled {
		return nil
	}
	embedder, err := llm.NewOpenAIProvider(rt.llmCfg.OpenAI)
	if err != nil {
		rt.logger.Warn("semantic search disabled, no embedding provider", zap.Error(err))
		return nil
	}
	index, err := lessons.NewQdrantIndex(lessons.QdrantConfig{
		URL:            lc.Semantic.URL,
		APIKey:         lc.Semantic.APIKey,
		CollectionName: lc.Semantic.Collection,
		VectorSize:     lc.Semantic.VectorSize,
	})
	if err != nil {
		return fmt.Errorf("open qdrant index: %w", err)
	}
	rt.index = index
	rt.semantic = lessons.NewSemanticStore(rt.lessons, index, embedder, rt.logger)
	rt.lessons = rt.semantic
	return nil
}

func (rt *runtime) openSessions() error {
	sc := rt.cfg.Sessions
	if sc.Driver != string(session.StoreTypeRedis) {
		s, err := session.NewStore(session.StoreTypeMemory)
		if err != nil {
			return fmt.Errorf("open session store: %w", err)
		}
		rt.sessions = s
		return nil
	}

	rt.redis = redis.NewClient(&redis.Options{
		Addr:     sc.Redis.Addr,
		Password: sc.Redis.Password,
		DB:       sc.Redis.DB,
	})
	s, err := session.NewStore(session.StoreTypeRedis,
		session.WithRedisClient(rt.redis),
		session.WithRedisTTL(sc.IdleTTL),
		session.WithKeyPrefix(sc.Redis.Prefix),
		session.WithLogger(rt.logger),
	)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	rt.sessions = s
	return nil
}

func (rt *runtime) chatConfig() chat.Config {
	cc := chat.DefaultConfig()
	cc.GenerationTimeout = rt.cfg.Chat.GenerationTimeout
	cc.HistoryTokens = rt.cfg.Chat.HistoryTokens
	cc.HistoryMessages = rt.cfg.Chat.HistoryMessages
	cc.MaxContext = rt.cfg.Chat.MaxContext
	cc.MaxTokens = rt.llmCfg.MaxTokens
	if rt.llmCfg.Temperature > 0 {
		cc.Temperature = rt.llmCfg.Temperature
	}
	cc.ShiftRatio = rt.cfg.Variant.ShiftRatio
	cc.MinShift = rt.cfg.Variant.MinShift
	cc.TruncateAt = rt.cfg.Guided.TruncateAt
	cc.MaxMappingLines = rt.cfg.Guided.MaxMappingLines
	return cc
}

// probe checks the backing services in parallel. An unreachable Redis is
// fatal; an unreachable Qdrant only disables semantic search.
func (rt *runtime) probe(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if rt.redis != nil {
		g.Go(func() error {
			if err := rt.redis.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis ping %s: %w", rt.cfg.Sessions.Redis.Addr, err)
			}
			return nil
		})
	}
	if rt.sqlLessons != nil {
		g.Go(func() error {
			n, err := rt.sqlLessons.Count(ctx)
			if err != nil {
				return fmt.Errorf("count lessons: %w", err)
			}
			if n == 0 {
				rt.logger.Warn("lesson table is empty; run `mathibot lessons import`")
			}
			rt.logger.Info("lessons loaded", zap.Int("count", n))
			return nil
		})
	}
	if rt.index != nil {
		g.Go(func() error {
			if err := rt.index.EnsureCollection(ctx); err != nil {
				rt.logger.Warn("qdrant unavailable, semantic search will fall back to text", zap.Error(err))
			}
			return nil
		})
	}
	return g.Wait()
}

// Close releases every opened resource.
func (rt *runtime) Close() error {
	var errs []error
	if rt.sessions != nil {
		errs = append(errs, rt.sessions.Close())
	} else if rt.redis != nil {
		errs = append(errs, rt.redis.Close())
	}
	if rt.index != nil {
		errs = append(errs, rt.index.Close())
	}
	if rt.store != nil {
		errs = append(errs, rt.store.Close())
	}
	return errors.Join(errs...)
}
