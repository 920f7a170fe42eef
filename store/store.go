// Package store is the only place that talks to the league database. Every
// operation is a single short transaction retried on lock contention.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"league-orchestrator/models"
)

const (
	defaultAttempts    = 5
	defaultBackoff     = 200 * time.Millisecond
	defaultLockTimeout = 2 * time.Second
	connectDeadline    = 30 * time.Second
)

type Store struct {
	db          *gorm.DB
	log         zerolog.Logger
	attempts    int
	backoff     time.Duration
	lockTimeout time.Duration
	busy        func(error) bool
}

type Option func(*Store)

func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithRetry overrides the contention retry budget.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(s *Store) {
		if attempts > 0 {
			s.attempts = attempts
		}
		s.backoff = backoff
	}
}

// WithLockTimeout bounds how long a statement waits on a row lock before the
// database reports contention. Zero leaves the server default.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) { s.lockTimeout = d }
}

func New(db *gorm.DB, opts ...Option) *Store {
	s := &Store{
		db:          db,
		log:         zerolog.Nop(),
		attempts:    defaultAttempts,
		backoff:     defaultBackoff,
		lockTimeout: defaultLockTimeout,
		busy:        isContention,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects to Postgres, pinging until the database answers or the
// deadline passes.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, eris.Wrap(err, "failed to open database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, eris.Wrap(err, "failed to get sql handle")
	}
	sqlDB.SetMaxOpenConns(10)

	deadline := time.Now().Add(connectDeadline)
	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err = sqlDB.PingContext(pingCtx)
		cancel()
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			return nil, eris.Wrapf(err, "failed to connect database after %s", connectDeadline)
		}
		select {
		case <-ctx.Done():
			return nil, eris.Wrap(ctx.Err(), "connect cancelled")
		case <-time.After(time.Second):
		}
	}
	return New(db, opts...), nil
}

// DB exposes the underlying handle for tests and migrations.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates or updates every league table.
func (s *Store) Migrate(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(
		&models.Player{},
		&models.PlayerRole{},
		&models.Game{},
		&models.GamePlayer{},
		&models.GameArgs{},
		&models.SteamBot{},
	)
	return eris.Wrap(err, "failed to migrate database")
}

// retry calls attempt until it succeeds, fails with a non-contention error or
// runs out of attempts, sleeping a fixed backoff between tries.
func (s *Store) retry(ctx context.Context, op string, attempt func() error) error {
	var err error
	for i := 1; i <= s.attempts; i++ {
		err = attempt()
		if err == nil || !s.busy(err) {
			return err
		}
		s.log.Debug().Str("op", op).Int("attempt", i).Err(err).Msg("database locked, retrying")
		if i == s.attempts {
			break
		}
		timer := time.NewTimer(s.backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return eris.Wrap(ctx.Err(), "waiting out lock contention")
		case <-timer.C:
		}
	}
	s.log.Error().Str("op", op).Int("attempts", s.attempts).Err(err).Msg("database is busy")
	return eris.Wrapf(ErrStoreBusy, "%d attempts, last error: %v", s.attempts, err)
}

// run executes fn in its own transaction under the retry discipline.
func (s *Store) run(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	err := s.retry(ctx, op, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if s.lockTimeout > 0 {
				// SET does not take bind parameters.
				stmt := fmt.Sprintf("SET LOCAL lock_timeout = %d", s.lockTimeout.Milliseconds())
				if err := tx.Exec(stmt).Error; err != nil {
					return err
				}
			}
			return fn(tx)
		})
	})
	if err != nil {
		return eris.Wrap(err, op)
	}
	return nil
}

// exec runs a mutation that must touch at least one row.
func (s *Store) exec(ctx context.Context, op string, fn func(tx *gorm.DB) *gorm.DB) error {
	return s.run(ctx, op, func(tx *gorm.DB) error {
		res := fn(tx)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected <= 0 {
			return ErrNoRowsModified
		}
		return nil
	})
}

// insert runs fn and returns the id it produced.
func (s *Store) insert(ctx context.Context, op string, fn func(tx *gorm.DB) (uint, error)) (uint, error) {
	var id uint
	err := s.run(ctx, op, func(tx *gorm.DB) error {
		var err error
		id, err = fn(tx)
		if err != nil {
			return err
		}
		if id == 0 {
			return ErrNotFound
		}
		return nil
	})
	return id, err
}

// one returns the first row fn selects. Model queries should add their own Limit.
func one[T any](ctx context.Context, s *Store, op string, fn func(tx *gorm.DB) *gorm.DB) (T, error) {
	var out T
	err := s.run(ctx, op, func(tx *gorm.DB) error {
		var row T
		res := fn(tx).Find(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		out = row
		return nil
	})
	return out, err
}

// many returns every row fn selects, failing with ErrNotFound when there are none.
func many[T any](ctx context.Context, s *Store, op string, fn func(tx *gorm.DB) *gorm.DB) ([]T, error) {
	var out []T
	err := s.run(ctx, op, func(tx *gorm.DB) error {
		var rows []T
		if err := fn(tx).Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return ErrNotFound
		}
		out = rows
		return nil
	})
	return out, err
}
