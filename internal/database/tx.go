package database

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
)

// ledgerLockClass namespaces the advisory locks taken on ledger scopes
const ledgerLockClass = 0x5eed

// WithTx runs fn inside a transaction, committing when fn returns nil
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Snapshot is the option set for consistent multi-table reads
var Snapshot = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

// LockScope serializes writers on one ledger scope until tx ends. A group is
// locked as a whole. Group 0 is the personal ledger, where a row touches the
// pairs of every user it names, so each of userIDs is locked in ascending
// order.
func LockScope(ctx context.Context, tx *sql.Tx, groupID int64, userIDs ...int64) error {
	if groupID != 0 {
		return advisoryLock(ctx, tx, ledgerLockClass, groupID)
	}
	for _, id := range lockOrder(userIDs) {
		if err := advisoryLock(ctx, tx, ledgerLockClass+1, id); err != nil {
			return err
		}
	}
	return nil
}

func advisoryLock(ctx context.Context, tx *sql.Tx, class int, key int64) error {
	// the two-int form takes int4 keys; fold the id into its low 31 bits
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, class, int32(key&0x7fffffff)); err != nil {
		return fmt.Errorf("failed to lock ledger scope: %w", err)
	}
	return nil
}

// lockOrder returns the distinct folded keys of ids in ascending order. Every
// writer takes its locks in this order, so two writers cannot deadlock.
func lockOrder(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	keys := make([]int64, 0, len(ids))
	for _, id := range ids {
		key := id & 0x7fffffff
		if id <= 0 || seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}
