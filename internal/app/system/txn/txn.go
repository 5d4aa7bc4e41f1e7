// Package txn runs multi-document mutations atomically when the MongoDB
// deployment supports transactions (replica set or sharded cluster), and
// falls back to sequential best-effort application when it does not
// (standalone dev servers).
//
// The migration engine leans on this: each migrated account is one logical
// batch (new account, new members, old members removed, old account removed)
// that must appear all-or-nothing wherever the deployment allows it.
//
// Batches here are well under MongoDB's 1000-operation transaction comfort
// zone (one account plus its members); callers moving materially larger sets
// must chunk before calling.
package txn

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// WithTransaction runs fn inside a MongoDB transaction. If the deployment
// does not support transactions, fn is re-run outside of one, which loses
// atomicity but keeps single-node development working. The fallback is
// logged at Warn so it is visible when it matters.
func WithTransaction(ctx context.Context, client *mongo.Client, log *zap.Logger, fn func(ctx context.Context) error) error {
	session, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			log.Warn("transactions unavailable, applying batch without atomicity", zap.Error(err))
			return fn(ctx)
		}
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		log.Warn("transactions unavailable, applying batch without atomicity", zap.Error(err))
		return fn(ctx)
	}
	return err
}

// IsNotSupported reports whether err indicates the deployment cannot run
// multi-document transactions (standalone server, old wire version).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var cmdErr mongo.CommandError
	if ce, ok := err.(mongo.CommandError); ok {
		cmdErr = ce
	}
	switch cmdErr.Code {
	case 20, 51, 263: // IllegalOperation variants raised for txn on standalone
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "transaction") &&
		(strings.Contains(msg, "replica set") || strings.Contains(msg, "session") || strings.Contains(msg, "illegal operation")) {
		return true
	}
	if strings.Contains(msg, "session") && strings.Contains(msg, "not supported") {
		return true
	}
	return false
}
