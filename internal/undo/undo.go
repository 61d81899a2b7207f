// Package undo deletes a worklog previously created through bookr, after
// locating it and asking for confirmation.
package undo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Onnokh/bookr/internal/ledger"
	"github.com/Onnokh/bookr/internal/worklog"
)

// DefaultSearchDays is how far back the remote lookup and the picker reach.
const DefaultSearchDays = 7

// LastAlias selects the most recently recorded worklog.
const LastAlias = "last"

type Outcome int

const (
	Deleted Outcome = iota
	AlreadyGone
	Cancelled
	NotFound
	NothingToUndo
)

func (o Outcome) String() string {
	switch o {
	case Deleted:
		return "deleted"
	case AlreadyGone:
		return "already gone"
	case Cancelled:
		return "cancelled"
	case NotFound:
		return "not found"
	case NothingToUndo:
		return "nothing to undo"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Result is the outcome of an undo together with the record it concerned.
// Record is zero for NotFound and NothingToUndo.
type Result struct {
	Outcome Outcome
	Record  worklog.Record
}

// Ledger is the part of the local ledger undo reads and prunes.
type Ledger interface {
	FindLast() (ledger.Entry, bool)
	FindByID(id string) (ledger.Entry, bool)
	Remove(id string) bool
}

// Views loads reconciled worklogs for lookup and selection.
type Views interface {
	Today(ctx context.Context, now time.Time) (worklog.View, error)
	LastDays(ctx context.Context, now time.Time, n int) (worklog.View, error)
}

// Deleter removes a worklog from the system it lives in.
type Deleter interface {
	Delete(ctx context.Context, r worklog.Record) error
}

// Confirmer asks whether r should be deleted.
type Confirmer func(r worklog.Record) (bool, error)

// Selector lets the user pick one of candidates, newest first. ok is false
// when the user cancelled.
type Selector func(candidates []worklog.Record) (r worklog.Record, ok bool, err error)

type Orchestrator struct {
	Ledger    Ledger
	Views     Views
	Deleter   Deleter
	Confirmer Confirmer
	Selector  Selector
	Now       func() time.Time
	// SearchDays defaults to DefaultSearchDays.
	SearchDays int
	Logger     zerolog.Logger
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *Orchestrator) searchDays() int {
	if o.SearchDays > 0 {
		return o.SearchDays
	}
	return DefaultSearchDays
}

// Undo deletes the worklog identified by id. An empty id or "last" means the
// most recently recorded worklog, falling back to interactive selection when
// the ledger has none.
func (o *Orchestrator) Undo(ctx context.Context, id string) (Result, error) {
	if id == "" || id == LastAlias {
		if e, ok := o.Ledger.FindLast(); ok {
			return o.confirmAndDelete(ctx, e.Record())
		}
		return o.Select(ctx)
	}

	r, found, err := o.lookup(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if !found {
		return Result{Outcome: NotFound}, nil
	}
	return o.confirmAndDelete(ctx, r)
}

// Select offers the recent worklogs for picking and deletes the chosen one.
func (o *Orchestrator) Select(ctx context.Context) (Result, error) {
	if o.Selector == nil {
		return Result{Outcome: NothingToUndo}, nil
	}
	v, err := o.Views.LastDays(ctx, o.now(), o.searchDays())
	if err != nil {
		return Result{}, fmt.Errorf("loading recent worklogs: %w", err)
	}
	candidates := v.NewestFirst()
	if len(candidates) == 0 {
		return Result{Outcome: NothingToUndo}, nil
	}
	r, ok, err := o.Selector(candidates)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{Outcome: Cancelled}, nil
	}
	return o.confirmAndDelete(ctx, r)
}

// lookup tries the ledger, then today's worklogs, then the search window.
func (o *Orchestrator) lookup(ctx context.Context, id string) (worklog.Record, bool, error) {
	if e, ok := o.Ledger.FindByID(id); ok {
		return e.Record(), true, nil
	}
	now := o.now()
	today, err := o.Views.Today(ctx, now)
	if err != nil {
		return worklog.Record{}, false, fmt.Errorf("loading today's worklogs: %w", err)
	}
	if r, ok := today.Find(id); ok {
		return r, true, nil
	}
	recent, err := o.Views.LastDays(ctx, now, o.searchDays())
	if err != nil {
		return worklog.Record{}, false, fmt.Errorf("loading recent worklogs: %w", err)
	}
	r, ok := recent.Find(id)
	return r, ok, nil
}

func (o *Orchestrator) confirmAndDelete(ctx context.Context, r worklog.Record) (Result, error) {
	if o.Confirmer != nil {
		ok, err := o.Confirmer(r)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			return Result{Outcome: Cancelled, Record: r}, nil
		}
	}

	err := o.Deleter.Delete(ctx, r)
	switch {
	case err == nil:
		o.forget(r)
		return Result{Outcome: Deleted, Record: r}, nil
	case IsNotFound(err):
		o.Logger.Info().Str("worklog_id", r.ID).Msg("worklog already deleted remotely")
		o.forget(r)
		return Result{Outcome: AlreadyGone, Record: r}, nil
	default:
		return Result{}, &DeleteError{ID: r.ID, Err: err}
	}
}

func (o *Orchestrator) forget(r worklog.Record) {
	if !o.Ledger.Remove(r.ID) && r.SecondaryID != "" {
		o.Ledger.Remove(r.SecondaryID)
	}
}

// DeleteError is a remote delete that failed for a reason other than the
// worklog being gone. The ledger still holds the entry.
type DeleteError struct {
	ID  string
	Err error
}

func (e *DeleteError) Error() string { return fmt.Sprintf("deleting worklog %s: %v", e.ID, e.Err) }
func (e *DeleteError) Unwrap() error { return e.Err }

// IsNotFound reports whether err says the remote resource does not exist.
func IsNotFound(err error) bool {
	var nf interface{ NotFound() bool }
	return errors.As(err, &nf) && nf.NotFound()
}
