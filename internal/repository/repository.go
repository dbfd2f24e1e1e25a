// Package repository is the entity-level API over the store: it assigns ids,
// stamps timestamps, validates payloads and merges partial updates.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sandeepkv93/flowd/internal/model"
	"github.com/sandeepkv93/flowd/internal/storage"
)

var ErrNotFound = storage.ErrNotFound

type Clock func() time.Time

type Option func(*Repository)

func WithClock(c Clock) Option {
	return func(r *Repository) {
		if c != nil {
			r.clock = c
		}
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(r *Repository) {
		if fn != nil {
			r.newID = fn
		}
	}
}

type Repository struct {
	store *storage.Store
	c     storage.Collections
	inTx  bool
	clock Clock
	newID func() string
}

func New(store *storage.Store, opts ...Option) *Repository {
	r := &Repository{
		store: store,
		c:     store.Collections,
		clock: time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Now is the repository clock; every timestamp it writes comes from here.
func (r *Repository) Now() time.Time { return r.clock() }

func (r *Repository) Store() *storage.Store { return r.store }

// InTx runs fn with a repository bound to a single store transaction. Calls on
// a repository that is already transactional join the open transaction.
func (r *Repository) InTx(ctx context.Context, fn func(*Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	return r.store.Tx(ctx, func(c storage.Collections) error {
		tx := *r
		tx.c = c
		tx.inTx = true
		return fn(&tx)
	})
}

// EnsureDefaults creates the Inbox project and the settings singleton when
// they are missing.
func (r *Repository) EnsureDefaults(ctx context.Context) error {
	return r.InTx(ctx, func(tx *Repository) error {
		now := tx.Now()
		if _, err := tx.c.Projects.Get(ctx, model.InboxProjectID); errors.Is(err, storage.ErrNotFound) {
			if err := tx.c.Projects.Add(ctx, model.InboxProject(now)); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		if _, err := tx.c.Settings.Get(ctx, model.SettingsID); errors.Is(err, storage.ErrNotFound) {
			if err := tx.c.Settings.Add(ctx, model.DefaultSettings(now)); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		return nil
	})
}

type record[T any] interface {
	*T
	Normalize()
	Validate() error
	Touch(time.Time)
}

func insert[T any, P record[T]](ctx context.Context, col *storage.Collection[T], v T) (T, error) {
	var zero T
	p := P(&v)
	p.Normalize()
	if err := p.Validate(); err != nil {
		return zero, err
	}
	if err := col.Add(ctx, v); err != nil {
		return zero, err
	}
	return v, nil
}

func mutate[T any, P record[T]](ctx context.Context, col *storage.Collection[T], id string, now time.Time, apply func(P) error) (T, error) {
	var zero T
	v, err := col.Get(ctx, id)
	if err != nil {
		return zero, notFound(col.Name(), id, err)
	}
	p := P(&v)
	if err := apply(p); err != nil {
		return zero, err
	}
	p.Touch(now)
	p.Normalize()
	if err := p.Validate(); err != nil {
		return zero, err
	}
	if err := col.Put(ctx, v); err != nil {
		return zero, notFound(col.Name(), id, err)
	}
	return v, nil
}

func remove[T any](ctx context.Context, col *storage.Collection[T], id string) error {
	if err := col.Delete(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return nil
}

func get[T any](ctx context.Context, col *storage.Collection[T], id string) (T, error) {
	v, err := col.Get(ctx, id)
	if err != nil {
		return v, notFound(col.Name(), id, err)
	}
	return v, nil
}

func notFound(collection, id string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%s %q: %w", collection, id, err)
	}
	return err
}

func set[V any](dst *V, src *V) {
	if src != nil {
		*dst = *src
	}
}

func setTime(dst **time.Time, src *time.Time, clear bool) {
	switch {
	case clear:
		*dst = nil
	case src != nil:
		v := *src
		*dst = &v
	}
}
