package service

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/qa-forum-api/internal/apperrors"
	"github.com/qa-forum-api/internal/config"
	"github.com/qa-forum-api/internal/repository"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// runner executes each unit of work in one transaction with a bounded
// timeout, retrying transient failures with exponential backoff
type runner struct {
	tx     repository.Transactor
	cfg    config.StoreConfig
	log    zerolog.Logger
	tracer trace.Tracer
}

func newRunner(tx repository.Transactor, cfg config.StoreConfig, log zerolog.Logger) *runner {
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 5 * time.Second
	}
	return &runner{
		tx:     tx,
		cfg:    cfg,
		log:    log.With().Str("component", "runner").Logger(),
		tracer: otel.Tracer("github.com/qa-forum-api/internal/service"),
	}
}

// run executes fn in a transaction. fn receives the attempt context, which
// carries the per-attempt deadline, and must use it for every store call.
func (r *runner) run(ctx context.Context, op string, fn func(ctx context.Context, repos *repository.Repositories) error) error {
	ctx, span := r.tracer.Start(ctx, op)
	defer span.End()

	start := time.Now()
	attempts := 0

	b := backoff.NewExponentialBackOff()
	if r.cfg.RetryInitial > 0 {
		b.InitialInterval = r.cfg.RetryInitial
	}
	if r.cfg.RetryMaxBackoff > 0 {
		b.MaxInterval = r.cfg.RetryMaxBackoff
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempts++
		attemptCtx, cancel := context.WithTimeout(ctx, r.cfg.OpTimeout)
		defer cancel()

		err := normalize(r.tx.WithinTx(attemptCtx, func(repos *repository.Repositories) error {
			return fn(attemptCtx, repos)
		}))
		if err == nil {
			return struct{}{}, nil
		}
		if apperrors.Is(err, apperrors.KindTransient) {
			storeRetriesTotal.WithLabelValues(op).Inc()
			r.log.Warn().Err(err).Str("op", op).Int("attempt", attempts).Msg("Transient store failure")
			return struct{}{}, err
		}
		return struct{}{}, backoff.Permanent(err)
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(r.cfg.MaxRetries)+1))

	err = normalize(err)
	storeOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("attempts", attempts))

	if err != nil {
		kind := apperrors.KindOf(err)
		storeOpsTotal.WithLabelValues(op, string(kind)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, string(kind))
		if kind == apperrors.KindInternal || kind == apperrors.KindTransient {
			r.log.Error().Err(err).Str("op", op).Int("attempts", attempts).Msg("Operation failed")
		}
		return err
	}
	storeOpsTotal.WithLabelValues(op, "ok").Inc()
	return nil
}

// normalize maps anything escaping a unit of work onto the application taxonomy
func normalize(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.Error
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.Conflict("a record with the same unique value already exists")
	case errors.Is(err, repository.ErrNotFound):
		return &apperrors.Error{Kind: apperrors.KindNotFound, Message: "record no longer exists"}
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Transient(err)
	case errors.Is(err, context.Canceled):
		return apperrors.Internal("request cancelled", err)
	}
	classified := repository.Classify(err)
	if apperrors.Is(classified, apperrors.KindTransient) || errors.Is(classified, repository.ErrDuplicate) {
		return normalize(classified)
	}
	return apperrors.Internal("unexpected store failure", err)
}
