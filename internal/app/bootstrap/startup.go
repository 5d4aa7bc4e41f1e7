// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/eurofed/memberhub/internal/app/store/oauthstate"
	"github.com/eurofed/memberhub/internal/app/system/workers"
	"go.uber.org/zap"
)

// stateCleanup runs for the lifetime of the process; Shutdown stops it.
var stateCleanup *workers.StateCleanup

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	stateCleanup = workers.NewStateCleanup(oauthstate.New(deps.MongoDatabase), logger, time.Hour)
	stateCleanup.Start()
	return nil
}
