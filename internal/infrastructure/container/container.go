// Package container wires the application together using Uber FX. Adapters
// are selected from configuration: SQLite-backed repositories, Redis or
// in-memory caching, and any chat-completions compatible language model.
package container

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mealmind/v1/internal/application/intent"
	appnutrition "github.com/mealmind/v1/internal/application/nutrition"
	"github.com/mealmind/v1/internal/application/orchestrator"
	"github.com/mealmind/v1/internal/application/portion"
	"github.com/mealmind/v1/internal/application/reasoning"
	"github.com/mealmind/v1/internal/application/recipeflow"
	"github.com/mealmind/v1/internal/application/tools"
	"github.com/mealmind/v1/internal/infrastructure/ai/openai"
	"github.com/mealmind/v1/internal/infrastructure/config"
	"github.com/mealmind/v1/internal/infrastructure/nutritionapi"
	gormrepo "github.com/mealmind/v1/internal/infrastructure/persistence/gorm"
	"github.com/mealmind/v1/internal/infrastructure/persistence/memory"
	redisrepo "github.com/mealmind/v1/internal/infrastructure/persistence/redis"
	"github.com/mealmind/v1/internal/ports/outbound"
	"github.com/mealmind/v1/pkg/logger"
)

// Module provides all dependency injection modules.
var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	DatabaseModule,
	CacheModule,
	RepositoryModule,
	ClientModule,
	ServiceModule,
	LifecycleModule,
)

// ConfigModule provides configuration.
var ConfigModule = fx.Provide(
	func() (*config.Config, error) {
		return config.Load("")
	},
)

// LoggerModule provides logging.
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
		})
	},
)

// DatabaseModule provides the SQLite database with migrated schema. In
// in-memory mode no database is opened and the handle stays nil.
var DatabaseModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
		if cfg.Database.InMemory {
			log.Info("using in-memory repositories, state will not survive restarts")
			return nil, nil
		}
		return gormrepo.Open(gormrepo.Config{Path: cfg.Database.Path}, log)
	},
)

// CacheModule provides the byte cache: Redis when enabled, in-memory
// otherwise.
var CacheModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) (outbound.CacheRepository, error) {
		if !cfg.Redis.Enable {
			log.Info("using in-memory cache")
			return memory.NewCacheRepository(), nil
		}
		client, err := redisrepo.NewClient(context.Background(), redisrepo.Config{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.Database,
		}, log)
		if err != nil {
			return nil, err
		}
		return redisrepo.NewCacheRepository(client, log), nil
	},
)

// RepositoryModule provides the repository implementations: SQLite-backed by
// default, fully in-memory when database.in_memory is set.
var RepositoryModule = fx.Provide(
	NewFoodLogRepository,
	NewGoalRepository,
	NewRecipeRepository,
	NewMemoryRepository,
	NewProfileRepository,
	NewConversionRepository,
	NewSessionRepository,
)

// NewFoodLogRepository selects the food-log repository for the configured
// storage mode.
func NewFoodLogRepository(cfg *config.Config, db *gorm.DB) outbound.FoodLogRepository {
	if cfg.Database.InMemory {
		return memory.NewFoodLogRepository()
	}
	return gormrepo.NewFoodLogRepository(db)
}

// NewGoalRepository selects the goal repository for the configured storage
// mode.
func NewGoalRepository(cfg *config.Config, db *gorm.DB) outbound.GoalRepository {
	if cfg.Database.InMemory {
		return memory.NewGoalRepository()
	}
	return gormrepo.NewGoalRepository(db)
}

// NewRecipeRepository selects the recipe repository for the configured
// storage mode.
func NewRecipeRepository(cfg *config.Config, db *gorm.DB) outbound.RecipeRepository {
	if cfg.Database.InMemory {
		return memory.NewRecipeRepository()
	}
	return gormrepo.NewRecipeRepository(db)
}

// NewMemoryRepository selects the memory-fact repository for the configured
// storage mode.
func NewMemoryRepository(cfg *config.Config, db *gorm.DB) outbound.MemoryRepository {
	if cfg.Database.InMemory {
		return memory.NewMemoryRepository()
	}
	return gormrepo.NewMemoryRepository(db)
}

// NewProfileRepository selects the profile repository for the configured
// storage mode.
func NewProfileRepository(cfg *config.Config, db *gorm.DB) outbound.ProfileRepository {
	if cfg.Database.InMemory {
		return memory.NewProfileRepository()
	}
	return gormrepo.NewProfileRepository(db)
}

// NewConversionRepository selects the conversion-cache repository for the
// configured storage mode.
func NewConversionRepository(cfg *config.Config, db *gorm.DB) outbound.ConversionCacheRepository {
	if cfg.Database.InMemory {
		return memory.NewConversionRepository()
	}
	return gormrepo.NewConversionRepository(db)
}

// NewSessionRepository selects the session repository for the configured
// storage mode.
func NewSessionRepository(cfg *config.Config, db *gorm.DB) outbound.SessionRepository {
	if cfg.Database.InMemory {
		return memory.NewSessionRepository()
	}
	return gormrepo.NewSessionRepository(db)
}

// ClientModule provides the external service clients.
var ClientModule = fx.Provide(
	fx.Annotate(
		func(cfg *config.Config, log *zap.Logger) *openai.Client {
			return openai.NewClient(openai.Config{
				APIKey:      cfg.AI.OpenAIKey,
				BaseURL:     cfg.AI.BaseURL,
				Model:       cfg.AI.Model,
				Temperature: cfg.AI.Temperature,
				MaxTokens:   cfg.AI.MaxTokens,
				Timeout:     cfg.AI.Timeout,
			}, log)
		},
		fx.As(new(outbound.LanguageModel)),
	),
	fx.Annotate(
		func(cfg *config.Config, log *zap.Logger) *nutritionapi.Client {
			return nutritionapi.NewClient(nutritionapi.Config{
				BaseURL: cfg.NutritionAPI.BaseURL,
				APIKey:  cfg.NutritionAPI.APIKey,
				Timeout: cfg.NutritionAPI.Timeout,
			}, log)
		},
		fx.As(new(outbound.NutritionAPI)),
	),
)

// ServiceModule provides the application services and the tool catalog.
var ServiceModule = fx.Provide(
	appnutrition.NewPipeline,
	portion.NewResolver,
	appnutrition.NewService,
	intent.NewClassifier,
	recipeflow.NewMachine,
	NewToolRegistry,
	reasoning.NewEngine,
	orchestrator.NewService,
)

// NewToolRegistry assembles the closed catalog of operations exposed to the
// language model.
func NewToolRegistry(
	log *zap.Logger,
	nutritionSvc *appnutrition.Service,
	foodLog outbound.FoodLogRepository,
	goals outbound.GoalRepository,
	recipes outbound.RecipeRepository,
	memoryRepo outbound.MemoryRepository,
	profiles outbound.ProfileRepository,
	sessions outbound.SessionRepository,
) *tools.Registry {
	return tools.NewRegistry(log,
		&tools.ProfileTool{Profiles: profiles},
		&tools.GoalsTool{Goals: goals, Sessions: sessions},
		&tools.ProgressTool{FoodLog: foodLog, Goals: goals},
		&tools.HistoryTool{FoodLog: foodLog},
		&tools.InsightsTool{FoodLog: foodLog, Goals: goals},
		&tools.ResolveNutritionTool{Nutrition: nutritionSvc},
		&tools.LookupRecipeTool{Recipes: recipes},
		&tools.ProposeFoodLogTool{Nutrition: nutritionSvc},
		&tools.ProposeRecipeLogTool{Recipes: recipes},
		&tools.ProposeGoalUpdateTool{},
		&tools.SaveMemoryTool{Memory: memoryRepo},
		&tools.SearchMemoryTool{Memory: memoryRepo},
	)
}

// LifecycleModule registers application lifecycle hooks.
var LifecycleModule = fx.Invoke(RegisterLifecycleHooks)

// RegisterLifecycleHooks logs startup and closes the database on shutdown.
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	db *gorm.DB,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("starting mealmind assistant",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
			)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down mealmind assistant")
			if db != nil {
				sqlDB, err := db.DB()
				if err == nil {
					if err := sqlDB.Close(); err != nil {
						log.Error("failed to close database connection", zap.Error(err))
					}
				}
			}
			_ = log.Sync()
			return nil
		},
	})
}
