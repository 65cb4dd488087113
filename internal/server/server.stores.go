package server

import (
	"context"
	"fmt"

	nuts "github.com/vaudience/go-nuts"
	"github.com/zekarki/WeatherAPI/internal/config"
	"github.com/zekarki/WeatherAPI/internal/database"
	"github.com/zekarki/WeatherAPI/internal/repository"
	"github.com/zekarki/WeatherAPI/internal/repository/memory"
	"github.com/zekarki/WeatherAPI/internal/repository/mongodb"
	"github.com/zekarki/WeatherAPI/internal/repository/postgres"
	redisrepo "github.com/zekarki/WeatherAPI/internal/repository/redis"
)

// Stores bundles the repositories selected by configuration
type Stores struct {
	Readings    repository.ReadingRepository
	DeletionLog repository.DeletionLogRepository
	Users       repository.UserRepository
	Sessions    repository.SessionRepository
	// NativeTTL is set when the backend expires inactive identities itself
	NativeTTL bool

	pings   []func(ctx context.Context) error
	closers []func(ctx context.Context) error
}

// MemoryStores returns in-process stores
func MemoryStores() *Stores {
	return &Stores{
		Readings:    memory.NewReadingRepository(),
		DeletionLog: memory.NewDeletionLogRepository(),
		Users:       memory.NewUserRepository(),
		Sessions:    memory.NewSessionRepository(),
	}
}

// OpenStores connects the configured document and session backends
func OpenStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	st := &Stores{}
	if err := st.openDocuments(ctx, cfg); err != nil {
		st.Close(ctx)
		return nil, err
	}
	if err := st.openSessions(ctx, cfg); err != nil {
		st.Close(ctx)
		return nil, err
	}
	return st, nil
}

func (st *Stores) openDocuments(ctx context.Context, cfg *config.Config) error {
	switch cfg.Storage.Driver {
	case config.DriverMongo:
		mdb, err := database.NewMongoDB(ctx, cfg.Mongo)
		if err != nil {
			return err
		}
		st.closers = append(st.closers, mdb.Close)
		st.pings = append(st.pings, mdb.Ping)
		if err := mongodb.EnsureIndexes(ctx, mdb.Database(), cfg.Retention.InactivityWindow); err != nil {
			return err
		}
		st.Readings = mongodb.NewReadingRepository(mdb.Database())
		st.DeletionLog = mongodb.NewDeletionLogRepository(mdb.Database())
		st.Users = mongodb.NewUserRepository(mdb.Database())
		st.NativeTTL = true
	case config.DriverPostgres:
		pdb, err := database.NewPostgresDB(cfg.Postgres)
		if err != nil {
			return err
		}
		st.closers = append(st.closers, func(context.Context) error { return pdb.Close() })
		st.pings = append(st.pings, pdb.Ping)
		if err := postgres.EnsureSchema(ctx, pdb); err != nil {
			return err
		}
		st.Readings = postgres.NewReadingRepository(pdb)
		st.DeletionLog = postgres.NewDeletionLogRepository(pdb)
		st.Users = postgres.NewUserRepository(pdb)
	case config.DriverMemory:
		nuts.L.Warnf("[Server] Using in-memory document store, data is lost on restart")
		mem := MemoryStores()
		st.Readings, st.DeletionLog, st.Users = mem.Readings, mem.DeletionLog, mem.Users
	default:
		return fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	return nil
}

func (st *Stores) openSessions(ctx context.Context, cfg *config.Config) error {
	switch cfg.Storage.Sessions {
	case config.DriverRedis:
		client, err := database.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		st.closers = append(st.closers, func(context.Context) error { return client.Close() })
		st.pings = append(st.pings, func(ctx context.Context) error { return client.Ping(ctx).Err() })
		st.Sessions = redisrepo.NewSessionRepository(client, cfg.Redis.KeyPrefix)
	case config.DriverMemory:
		st.Sessions = memory.NewSessionRepository()
	default:
		return fmt.Errorf("unknown session driver %q", cfg.Storage.Sessions)
	}
	return nil
}

// Ping checks every connected backend
func (st *Stores) Ping(ctx context.Context) error {
	for _, ping := range st.pings {
		if err := ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close releases backend connections in reverse order of opening
func (st *Stores) Close(ctx context.Context) {
	for i := len(st.closers) - 1; i >= 0; i-- {
		if err := st.closers[i](ctx); err != nil {
			nuts.L.Warnf("[Server] Error closing store: %v", err)
		}
	}
	st.closers = nil
}
