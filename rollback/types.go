package rollback

import (
	"fmt"
	"time"
)

// Scope selects which components a rollback reverts.
type Scope string

const (
	ScopeAll      Scope = "all"
	ScopeEdge     Scope = "edge"
	ScopeCluster  Scope = "cluster"
	ScopeDatabase Scope = "database"
)

// ParseScope validates a --component flag value.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeAll, ScopeEdge, ScopeCluster, ScopeDatabase:
		return Scope(s), nil
	default:
		return "", fmt.Errorf("unknown component scope %q (want all, edge, cluster, or database)", s)
	}
}

// DatabaseStrategy is the operator-selected way to revert database state.
// The controller never auto-selects one; database reversal cannot be made
// safe generically.
type DatabaseStrategy string

const (
	// StrategyBackup restores the most recent backup: list, prompt for an
	// identifier, restore
	StrategyBackup DatabaseStrategy = "backup"

	// StrategyMigrate executes down-migrations
	StrategyMigrate DatabaseStrategy = "migrate"
)

// Request describes one rollback invocation.
type Request struct {
	Environment string

	// RunID is informational only: it appears in the report but the
	// rollback reverts to one prior revision as tracked by the underlying
	// platforms, not to an arbitrary historical point.
	RunID string

	Scope  Scope
	Reason string

	// Operator is recorded in the incident artifact
	Operator string

	// DBStrategy may be empty, in which case the operator is prompted
	DBStrategy DatabaseStrategy
}

// ComponentResult records the outcome for one selected component.
type ComponentResult struct {
	Name   string
	Err    error
	Detail string
}

// OK reports whether the component rolled back cleanly.
func (c ComponentResult) OK() bool {
	return c.Err == nil
}

// Result is the full outcome of a rollback, from which the incident
// artifact is generated.
type Result struct {
	Request    Request
	StartedAt  time.Time
	FinishedAt time.Time

	Components []ComponentResult

	CacheKeysDeleted int
	CacheErr         error

	LogPath    string
	ReportPath string
}

// Err returns the first component failure, or the cache failure, or nil.
func (r *Result) Err() error {
	for _, c := range r.Components {
		if c.Err != nil {
			return c.Err
		}
	}
	return r.CacheErr
}
