package service

import (
	"fmt"

	"wetime-service/internal/config"
	"wetime-service/internal/notify"
	"wetime-service/internal/service/coffee"
	"wetime-service/internal/service/match"
	"wetime-service/internal/service/pairing"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Container struct {
	Match   *match.Service
	Coffee  *coffee.Service
	Pairing *pairing.Service // nil without a database
}

// Deps are the external handles; DB and Redis are optional depending on the
// configured store and lock.
type Deps struct {
	DB       *gorm.DB
	Redis    redis.UniversalClient
	Notifier notify.Notifier
	Log      *zap.Logger
}

func NewContainer(cfg config.MatchConfig, deps Deps) (*Container, error) {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.NewLogNotifier(deps.Log.Named("notify"))
	}
	store, err := newStore(cfg, deps)
	if err != nil {
		return nil, err
	}
	locker, err := newLocker(cfg, deps)
	if err != nil {
		return nil, err
	}

	matchSvc := match.NewService(store, locker, match.Config{
		StaleWindow:        cfg.StaleWindow,
		StoreTimeout:       cfg.StoreTimeout,
		MaxConflictRetries: cfg.MaxConflictRetries,
	}, deps.Log.Named("match"))

	c := &Container{Match: matchSvc}
	var recorder coffee.Recorder
	if deps.DB != nil {
		c.Pairing = pairing.NewService(deps.DB)
		recorder = c.Pairing
	}
	c.Coffee = coffee.NewService(matchSvc, deps.Notifier, recorder, deps.Log.Named("coffee"))
	return c, nil
}

func newStore(cfg config.MatchConfig, deps Deps) (match.Store, error) {
	switch cfg.Store {
	case "redis":
		if deps.Redis == nil {
			return nil, fmt.Errorf("match.store=redis needs a redis connection")
		}
		return match.NewRedisStore(deps.Redis, cfg.ScanBatch), nil
	case "postgres":
		if deps.DB == nil {
			return nil, fmt.Errorf("match.store=postgres needs a database connection")
		}
		return match.NewGormStore(deps.DB, cfg.ScanBatch), nil
	case "memory":
		return match.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown match store %q", cfg.Store)
	}
}

func newLocker(cfg config.MatchConfig, deps Deps) (match.Locker, error) {
	switch cfg.Lock {
	case "redis":
		if deps.Redis == nil {
			return nil, fmt.Errorf("match.lock=redis needs a redis connection")
		}
		return match.NewRedisLocker(deps.Redis, cfg.LockTTL, deps.Log.Named("lock")), nil
	case "local":
		return match.NewLocalLocker(), nil
	default:
		return nil, fmt.Errorf("unknown match lock %q", cfg.Lock)
	}
}
