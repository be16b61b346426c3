package entitykit

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"
)

// RunInTx executes fn within a single database transaction, handing it a
// transaction-bound Session to build Contexts from. If fn returns an error
// the transaction is rolled back, otherwise it is committed.
//
// Use it when several engine operations must observe one snapshot or fail
// together:
//
//	err := entitykit.RunInTx(ctx, db, func(ctx context.Context, s entitykit.Session) error {
//	    ec := entitykit.NewUserContext(s, actor)
//	    if _, err := roles.Create(ctx, ec, in); err != nil {
//	        return err // rollback
//	    }
//	    _, err := users.AssignRole(ctx, entitykit.NewMaybeUserContext(s, actor), userID, roleID)
//	    return err
//	})
func RunInTx(ctx context.Context, db *bun.DB, fn func(ctx context.Context, s Session) error) error {
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, tx)
	})
}

// RunInReadOnlyTx is RunInTx with a read-only transaction, for callers that
// only read and want a consistent snapshot across queries.
func RunInReadOnlyTx(ctx context.Context, db *bun.DB, fn func(ctx context.Context, s Session) error) error {
	return db.RunInTx(ctx, &sql.TxOptions{ReadOnly: true}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, tx)
	})
}
