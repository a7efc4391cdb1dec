package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SpendResult is the outcome of a daily spend check.
type SpendResult struct {
	Allowed      bool
	SpentCredits float64
	LimitCredits float64
}

// Ledger tracks wallet balances and daily credit spend via Redis. It is the
// bookkeeping collaborator that consumes routing cost estimates; the routing
// core itself never calls into it.
type Ledger struct {
	rdb *redis.Client
}

// NewLedger creates a ledger. If rdb is nil, balance checks pass and debits
// are no-ops (fail open).
func NewLedger(rdb *redis.Client) *Ledger {
	return &Ledger{rdb: rdb}
}

// Enabled reports whether the ledger is backed by Redis. Callers skip
// balance enforcement when it is not.
func (l *Ledger) Enabled() bool {
	return l.rdb != nil
}

func balanceKey(walletID string) string {
	return fmt.Sprintf("oneflow:wallet:balance:%s", walletID)
}

func dailySpendKey(walletID string) string {
	day := time.Now().UTC().Format("2006-01-02")
	return fmt.Sprintf("oneflow:wallet:daily:%s:%s", walletID, day)
}

// Balance returns the wallet's current credit balance. Missing wallets read
// as zero.
func (l *Ledger) Balance(ctx context.Context, walletID string) (float64, error) {
	if l.rdb == nil {
		return 0, nil
	}
	balance, err := l.rdb.Get(ctx, balanceKey(walletID)).Float64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read wallet balance: %w", err)
	}
	return balance, nil
}

// Credit adds credits to the wallet balance.
func (l *Ledger) Credit(ctx context.Context, walletID string, credits float64) error {
	if l.rdb == nil || credits <= 0 {
		return nil
	}
	return l.rdb.IncrByFloat(ctx, balanceKey(walletID), credits).Err()
}

// Debit subtracts credits from the wallet balance and adds them to the daily
// spend counter.
func (l *Ledger) Debit(ctx context.Context, walletID string, credits float64) error {
	if l.rdb == nil || credits <= 0 {
		return nil
	}

	pipe := l.rdb.Pipeline()
	pipe.IncrByFloat(ctx, balanceKey(walletID), -credits)
	key := dailySpendKey(walletID)
	pipe.IncrByFloat(ctx, key, credits)
	// Expire at end of day UTC + 1 hour buffer
	now := time.Now().UTC()
	endOfDay := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	pipe.Expire(ctx, key, endOfDay.Sub(now)+time.Hour)
	_, err := pipe.Exec(ctx)
	return err
}

// CheckDailySpend checks if the wallet is under its daily credit limit.
// A limit <= 0 means unlimited.
func (l *Ledger) CheckDailySpend(ctx context.Context, walletID string, limitCredits float64) (SpendResult, error) {
	if l.rdb == nil || limitCredits <= 0 {
		return SpendResult{Allowed: true, LimitCredits: limitCredits}, nil
	}

	spent, err := l.rdb.Get(ctx, dailySpendKey(walletID)).Float64()
	if err != nil && err != redis.Nil {
		// Fail open on Redis errors
		return SpendResult{Allowed: true, LimitCredits: limitCredits}, nil
	}

	return SpendResult{
		Allowed:      spent < limitCredits,
		SpentCredits: spent,
		LimitCredits: limitCredits,
	}, nil
}
