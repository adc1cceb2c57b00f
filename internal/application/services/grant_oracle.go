// Package services contains the application services that connect the
// capability domain to the permission gate.
package services

import (
	"context"
	"fmt"
	"log/slog"

	haspermission "github.com/mstuart/has-permission"
	"github.com/mstuart/has-permission/internal/application/ports"
	"github.com/mstuart/has-permission/internal/domain/capabilities"
	"golang.org/x/sync/errgroup"
)

var _ haspermission.Oracle = (*GrantOracle)(nil)

// GrantOracle answers permission queries from a fixed set of grants.
// It is read-only after construction and safe for concurrent use.
type GrantOracle struct {
	policy *capabilities.Policy
	grants capabilities.Grant
	logger *slog.Logger
}

// NewGrantOracle creates an oracle over grants.
func NewGrantOracle(grants capabilities.Grant) *GrantOracle {
	owned := capabilities.NewGrant()
	owned.Merge(grants)
	return &GrantOracle{
		policy: capabilities.NewPolicy(),
		grants: owned,
		logger: slog.Default(),
	}
}

// LoadGrantOracle loads every store concurrently and builds an oracle over
// inline plus the stored grants, in argument order.
func LoadGrantOracle(ctx context.Context, inline capabilities.Grant, stores ...ports.GrantStore) (*GrantOracle, error) {
	loaded := make([]capabilities.Grant, len(stores))

	g, ctx := errgroup.WithContext(ctx)
	for i, store := range stores {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			grants, err := store.Load()
			if err != nil {
				return fmt.Errorf("failed to load grants from %s: %w", store.ConfigPath(), err)
			}
			loaded[i] = grants
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	all := capabilities.NewGrant()
	all.Merge(inline)
	for _, grants := range loaded {
		all.Merge(grants)
	}

	slog.Debug("loaded permission grants", "count", len(all), "stores", len(stores))
	return NewGrantOracle(all), nil
}

// Has reports whether scope is granted for reference.
func (o *GrantOracle) Has(scope, reference string) bool {
	request := capabilities.Request{
		Scope:     capabilities.Scope(scope),
		Reference: reference,
	}
	if o.policy.IsGranted(request, o.grants.ForScope(request.Scope)) {
		return true
	}
	o.logger.Debug("permission denied", "scope", scope, "reference", reference)
	return false
}
