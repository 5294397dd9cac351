// Package warehouse loads normalized tables into a remote warehouse, with a
// bounded retry policy that widens column types on coercion failures.
package warehouse

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/baystatedata/covidetl/internal/etl"
)

// Uploader replaces a destination relation's contents with a table. Each
// successful load fully overwrites the relation; there is no append.
type Uploader interface {
	Upload(ctx context.Context, relation string, table *etl.NormalizedTable) error
}

// TypeMismatchError signals that a string-typed destination column received
// integer-typed source values. It is the only recoverable upload error: the
// loader widens the column to string and retries.
type TypeMismatchError struct {
	Column string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("destination column %q is string-typed but received non-string values", e.Column)
}

// RetryState tracks one relation's load attempts and the columns already
// widened, so retry behavior is testable without a live upload target.
type RetryState struct {
	Attempt int
	Widened map[string]bool
}

// Loader drives uploads through the retry policy.
type Loader struct {
	uploader Uploader
	budget   int
	logger   *zap.Logger
}

// NewLoader builds a Loader with the given attempt budget.
func NewLoader(uploader Uploader, budget int, logger *zap.Logger) *Loader {
	if budget < 1 {
		budget = 5
	}
	return &Loader{uploader: uploader, budget: budget, logger: logger}
}

// Load uploads one relation. On a type-coercion failure the offending
// column is cast to string in-memory and the attempt repeated, up to the
// budget. Any other error aborts immediately and marks the relation failed.
func (l *Loader) Load(ctx context.Context, relation string, table *etl.NormalizedTable) etl.UploadOutcome {
	state := RetryState{Widened: make(map[string]bool)}

	for state.Attempt < l.budget {
		state.Attempt++
		err := l.uploader.Upload(ctx, relation, table)
		if err == nil {
			l.logger.Info("relation loaded",
				zap.String("relation", relation),
				zap.Int("attempts", state.Attempt),
			)
			return etl.UploadOutcome{
				Relation: relation,
				Status:   etl.UploadSucceeded,
				Attempts: state.Attempt,
			}
		}

		var mismatch *TypeMismatchError
		if !errors.As(err, &mismatch) {
			l.logger.Error("relation load failed",
				zap.String("relation", relation),
				zap.Int("attempts", state.Attempt),
				zap.Error(err),
			)
			return etl.UploadOutcome{
				Relation: relation,
				Status:   etl.UploadFailed,
				Attempts: state.Attempt,
				Err:      err.Error(),
			}
		}

		if state.Widened[mismatch.Column] {
			// Widening did not resolve the mismatch; retrying the same
			// mutation cannot succeed.
			return etl.UploadOutcome{
				Relation: relation,
				Status:   etl.UploadFailed,
				Attempts: state.Attempt,
				Err:      fmt.Sprintf("column %q still mismatched after widening", mismatch.Column),
			}
		}
		if !table.CastColumnToString(mismatch.Column) {
			return etl.UploadOutcome{
				Relation: relation,
				Status:   etl.UploadFailed,
				Attempts: state.Attempt,
				Err:      fmt.Sprintf("mismatched column %q not present in table", mismatch.Column),
			}
		}
		state.Widened[mismatch.Column] = true
		l.logger.Warn("widened column to string, retrying upload",
			zap.String("relation", relation),
			zap.String("column", mismatch.Column),
			zap.Int("attempt", state.Attempt),
		)
	}

	return etl.UploadOutcome{
		Relation: relation,
		Status:   etl.UploadRetryExhausted,
		Attempts: state.Attempt,
		Err:      fmt.Sprintf("attempt budget %d exhausted", l.budget),
	}
}
