package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/raviakasapu/generative-planner-vision-sub000/common/database"
	"github.com/raviakasapu/generative-planner-vision-sub000/common/logger"
	"github.com/raviakasapu/generative-planner-vision-sub000/common/mqtt"
	rediscommon "github.com/raviakasapu/generative-planner-vision-sub000/common/redis"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/access"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/config"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/events"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/grid"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/repository"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/service"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/store"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// app holds every wired component of planner-data.
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	db    *sql.DB
	redis *redis.Client
	mqtt  *mqtt.Client

	grantCache *access.CachedGrantSource
	sessions   *grid.SessionStore
	publisher  *events.Multi
	listener   *events.Listener

	fetcher    *service.FactFetcher
	planning   *service.PlanningService
	dimensions *service.DimensionService
	versions   *service.VersionService
	grants     *service.AccessGrantService
	rules      *service.RuleService
	assistant  *service.AssistantService
}

type repositories struct {
	dims     repository.DimensionsRepository
	facts    repository.FactsRepository
	grants   repository.AccessGrantsRepository
	versions repository.VersionsRepository
	rules    repository.BusinessRulesRepository
}

func newApp(ctx context.Context, cfg *config.Config, serviceName string) (*app, error) {
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, serviceName)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	a := &app{cfg: cfg, logger: log}

	policy, err := access.ParsePolicy(cfg.Access.Policy)
	if err != nil {
		return nil, err
	}
	controlled := make([]domain.DimensionType, 0, len(cfg.Access.Controlled))
	for _, name := range cfg.Access.Controlled {
		t, err := domain.ParseDimensionType(name)
		if err != nil {
			return nil, fmt.Errorf("invalid controlled dimension: %w", err)
		}
		controlled = append(controlled, t)
	}

	repos := a.openRepositories(ctx)

	// Redis 不可用时授权缓存退化为进程内缓存，事件流关闭
	var kv store.KV
	client, err := rediscommon.Connect(ctx, &cfg.Redis, 0)
	if err != nil {
		log.Warn("Redis unavailable, using in-process grant cache and disabling event stream", zap.Error(err))
		kv = store.NewMemoryKV()
	} else {
		a.redis = client
		kv = store.NewRedisKV(client)
	}

	a.publisher = events.NewMulti(log)
	if a.redis != nil && cfg.Events.StreamEnabled {
		a.publisher.Add("redis_stream", events.NewStreamPublisher(a.redis, cfg.Events.Stream))
	}
	if cfg.MQTT.Enabled {
		c, err := mqtt.NewClient(&cfg.MQTT.MQTTConfig)
		if err != nil {
			log.Warn("MQTT connection failed, MQTT events disabled", zap.Error(err))
		} else {
			a.mqtt = c
			a.publisher.Add("mqtt", events.NewMQTTPublisher(c, cfg.MQTT.TopicPrefix))
		}
	}

	a.grantCache = access.NewCachedGrantSource(repos.grants, kv, cfg.Access.GrantCacheTTL, log)
	a.sessions = grid.NewSessionStore(cfg.Access.SessionIdle, log)

	a.fetcher = service.NewFactFetcher(a.grantCache, repos.facts, access.NewBuilder(policy, controlled), log)
	a.planning = service.NewPlanningService(a.fetcher, repos.facts, a.sessions, a.publisher, log)
	// 会话行不早于授权缓存过期，跨实例的审批结果最迟一个 TTL 后生效
	a.planning.SetSessionMaxAge(cfg.Access.GrantCacheTTL)
	a.versions = service.NewVersionService(repos.dims, repos.versions, a.publisher, log)
	a.dimensions = service.NewDimensionService(repos.dims, a.versions, log)
	a.grants = service.NewAccessGrantService(repos.grants, repos.dims, a.grantCache, a.sessions, a.publisher, log)
	a.rules = service.NewRuleService(repos.rules, log)

	// 多实例部署：通过事件流同步其他实例的授权审批
	if a.redis != nil && cfg.Events.StreamEnabled {
		group := serviceName + "-" + uuid.NewString()[:8]
		a.listener = events.NewListener(a.redis, cfg.Events.Stream, group, log).
			On(events.TypeGrantDecided, a.grants.HandleGrantDecided)
	}

	var llm service.Completer
	if cfg.LLM.Enabled() {
		llm = service.NewLLMClient(cfg.LLM, log)
	} else {
		log.Info("LLM not configured, assistant disabled")
	}
	a.assistant = service.NewAssistantService(a.fetcher, llm, log)

	log.Info("planner-data wired",
		zap.String("access_policy", policy.String()),
		zap.Strings("controlled_dimensions", cfg.Access.Controlled),
		zap.Bool("db", a.db != nil),
		zap.Bool("redis", a.redis != nil),
		zap.Int("event_sinks", a.publisher.Len()),
	)
	return a, nil
}

// openRepositories connects Postgres when enabled and falls back to memory
// repositories otherwise.
func (a *app) openRepositories(ctx context.Context) repositories {
	if a.cfg.DBEnabled {
		d, err := database.Connect(ctx, &a.cfg.Database, 0)
		if err == nil {
			a.db = d
			a.logger.Info("DB enabled for planner-data")
			return repositories{
				dims:     repository.NewPostgresDimensionsRepository(d),
				facts:    repository.NewPostgresFactsRepository(d),
				grants:   repository.NewPostgresAccessGrantsRepository(d),
				versions: repository.NewPostgresVersionsRepository(d),
				rules:    repository.NewPostgresBusinessRulesRepository(d),
			}
		}
		a.logger.Warn("DB enabled but connection failed, falling back to memory repositories", zap.Error(err))
	}

	// DB 未就绪：使用内存 repo 支持本地联调
	dims := repository.NewMemoryDimensionsRepo()
	facts := repository.NewMemoryFactsRepo(dims)
	return repositories{
		dims:     dims,
		facts:    facts,
		grants:   repository.NewMemoryAccessGrantsRepo(),
		versions: repository.NewMemoryVersionsRepo(dims, facts),
		rules:    repository.NewMemoryBusinessRulesRepo(),
	}
}

func (a *app) Close() {
	if a.mqtt != nil {
		a.mqtt.Disconnect()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
	_ = a.logger.Sync()
}
