// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/waffle/config"
	accountstore "github.com/eurofed/memberhub/internal/app/store/accounts"
	auditstore "github.com/eurofed/memberhub/internal/app/store/audit"
	crossrefstore "github.com/eurofed/memberhub/internal/app/store/crossrefs"
	invitestore "github.com/eurofed/memberhub/internal/app/store/invites"
	memberstore "github.com/eurofed/memberhub/internal/app/store/members"
	"github.com/eurofed/memberhub/internal/app/store/oauthstate"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB establishes the MongoDB connection used by every store.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, fmt.Errorf("mongodb ping: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", appCfg.MongoMaxPoolSize))

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema creates the indexes every store relies on. Each store owns
// its own index definitions; problems are aggregated so any failure is
// visible and startup can fail fast.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	var problems []string
	ensure := func(name string, fn func(context.Context) error) {
		if err := fn(ctx); err != nil {
			problems = append(problems, name+": "+err.Error())
		}
	}

	ensure("accounts", accountstore.New(db).EnsureIndexes)
	ensure("members", memberstore.New(db).EnsureIndexes)
	ensure("crossrefs", crossrefstore.New(db).EnsureIndexes)
	ensure("invites", invitestore.New(db, appCfg.InviteExpiry).EnsureIndexes)
	ensure("audit", auditstore.New(db).EnsureIndexes)
	ensure("oauth_states", oauthstate.New(db).EnsureIndexes)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	logger.Info("database indexes ensured")
	return nil
}
