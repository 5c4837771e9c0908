package service

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/multierr"

	"sync_service/internal/provider"
	"sync_service/internal/tokenvault"
	"sync_service/pkg/retry"
)

var (
	ErrNotConnected    = tokenvault.ErrNotConnected
	ErrSyncInProgress  = errors.New("sync already in progress")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
)

func transient(err error) bool {
	return provider.IsTransient(err)
}

func retryPolicy(attempts int, base time.Duration) retry.Policy {
	return retry.Policy{MaxAttempts: max(attempts, 1), BaseDelay: base, Retriable: transient}
}

// errorStrings flattens an aggregated error for the structured result.
func errorStrings(err error) []string {
	errs := multierr.Errors(err)
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, strings.TrimSpace(e.Error()))
	}
	return out
}
