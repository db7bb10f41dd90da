// Package secretary enforces the company-secretary singleton: at most one
// director may hold the secretary role at a time, and a rejected claim names
// the current holder so the caller can present a useful message.
package secretary

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/SmartForm247/EasyForm2/internal/platform/metrics"
	"github.com/SmartForm247/EasyForm2/internal/registration/schema"
	"github.com/SmartForm247/EasyForm2/internal/registration/store"
	dErrors "github.com/SmartForm247/EasyForm2/pkg/domain-errors"
	"github.com/SmartForm247/EasyForm2/pkg/platform/sentinel"
)

// Guard arbitrates secretary claims for a registration.
type Guard struct {
	store   store.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures the guard.
type Option func(*Guard)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) { g.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Guard) { g.metrics = m }
}

func New(st store.Store, opts ...Option) *Guard {
	g := &Guard{store: st, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Claim checks whether the director may take the secretary role. It does not
// apply the flag; the role selector does that after a successful claim. A
// claim by the current holder is a no-op success.
func (g *Guard) Claim(ctx context.Context, regID uuid.UUID, dirIndex int) error {
	reg, err := g.store.Get(ctx, regID)
	if err != nil {
		return err
	}
	if reg.Director(dirIndex) == nil {
		return fmt.Errorf("director %d: %w", dirIndex, sentinel.ErrNotFound)
	}
	holder := reg.SecretaryHolder()
	if holder != 0 && holder != dirIndex {
		name := "Director " + fmt.Sprint(holder)
		if d := reg.Director(holder); d != nil {
			name = d.DisplayName()
		}
		if g.metrics != nil {
			g.metrics.SecretaryClaims.WithLabelValues("rejected").Inc()
		}
		g.logger.InfoContext(ctx, "secretary claim rejected",
			"registration_id", regID, "director", dirIndex, "holder", holder)
		return dErrors.Wrap(dErrors.CodeConflict,
			fmt.Sprintf("%s is already the company secretary; uncheck their secretary role first", name),
			sentinel.ErrAlreadyHeld)
	}
	if g.metrics != nil {
		g.metrics.SecretaryClaims.WithLabelValues("claimed").Inc()
	}
	return nil
}

// Release clears the secretary record after the director gives up the role.
// Callers invoke it after the flag change has been applied, so the holder
// check is against the releasing director's former state.
func (g *Guard) Release(ctx context.Context, regID uuid.UUID, dirIndex int) error {
	for _, f := range schema.PersonFields() {
		if err := g.store.SetField(ctx, regID, schema.KindSecretary, 0, f, ""); err != nil {
			return err
		}
	}
	if err := g.store.SetField(ctx, regID, schema.KindSecretary, 0, schema.FieldQualification, ""); err != nil {
		return err
	}
	if g.metrics != nil {
		g.metrics.SecretaryClaims.WithLabelValues("released").Inc()
	}
	g.logger.InfoContext(ctx, "secretary released", "registration_id", regID, "director", dirIndex)
	return nil
}

// Holder returns the index of the director currently holding the role, or
// zero when the secretary section is either empty or entered directly.
func (g *Guard) Holder(ctx context.Context, regID uuid.UUID) (int, error) {
	reg, err := g.store.Get(ctx, regID)
	if err != nil {
		return 0, err
	}
	return reg.SecretaryHolder(), nil
}

// Disabled returns the directors whose secretary checkbox is currently
// disabled: every director except the holder while the role is held, nobody
// when the secretary section is free.
func (g *Guard) Disabled(ctx context.Context, regID uuid.UUID) ([]int, error) {
	reg, err := g.store.Get(ctx, regID)
	if err != nil {
		return nil, err
	}
	holder := reg.SecretaryHolder()
	if holder == 0 {
		return nil, nil
	}
	var disabled []int
	for _, d := range reg.Directors {
		if d.Index != holder {
			disabled = append(disabled, d.Index)
		}
	}
	return disabled, nil
}
