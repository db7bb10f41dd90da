// Package roles applies the role transition rules of a director: the
// director-only flag is exclusive with the derived roles, dropping the last
// derived role falls back to director-only, and taking the secretary role
// must pass the singleton guard.
package roles

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	dErrors "github.com/SmartForm247/EasyForm2/pkg/domain-errors"
	"github.com/SmartForm247/EasyForm2/internal/registration/models"
	"github.com/SmartForm247/EasyForm2/internal/registration/store"
	"github.com/SmartForm247/EasyForm2/pkg/platform/sentinel"
)

// qualifications are the accepted secretary qualification entries. The
// literals are part of the persisted document contract and must not be
// reworded.
var qualifications = []string{
	"Professional qualification",
	"Tertiary level qualification",
	"Company Secretary Trainee",
	"Barrister or Solicitor in the Republic",
	"Institute of Chartered Accountants",
	"Under supervision of a qualified Company Secretary",
	"Institute of Chartered Secretaries and Administrators",
}

// Qualifications returns the accepted secretary qualification entries.
// The returned slice must not be modified.
func Qualifications() []string {
	return qualifications
}

// ValidQualification reports whether q is an accepted entry. Empty is valid;
// it means not yet chosen.
func ValidQualification(q string) bool {
	if q == "" {
		return true
	}
	for _, known := range qualifications {
		if known == q {
			return true
		}
	}
	return false
}

// SecretaryGuard is the singleton arbiter consulted before the secretary
// flag is granted.
type SecretaryGuard interface {
	Claim(ctx context.Context, regID uuid.UUID, dirIndex int) error
	Release(ctx context.Context, regID uuid.UUID, dirIndex int) error
}

// Selector applies role changes for directors.
type Selector struct {
	store  store.Store
	guard  SecretaryGuard
	logger *slog.Logger
}

// Option configures the selector.
type Option func(*Selector)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Selector) { s.logger = logger }
}

func New(st store.Store, guard SecretaryGuard, opts ...Option) *Selector {
	s := &Selector{store: st, guard: guard, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetRole enables or disables one role on a director and returns the
// resulting flag set. Structural consequences (linked record lifecycle,
// content mirroring) follow from the store event the flag change emits.
func (s *Selector) SetRole(ctx context.Context, regID uuid.UUID, dirIndex int, role models.Role, enabled bool) (models.RoleFlags, error) {
	reg, err := s.store.Get(ctx, regID)
	if err != nil {
		return models.RoleFlags{}, err
	}
	d := reg.Director(dirIndex)
	if d == nil {
		return models.RoleFlags{}, fmt.Errorf("director %d: %w", dirIndex, sentinel.ErrNotFound)
	}

	flags, err := Apply(d.Roles, role, enabled)
	if err != nil {
		return models.RoleFlags{}, err
	}
	if flags == d.Roles {
		return flags, nil
	}

	claiming := flags.Secretary && !d.Roles.Secretary
	releasing := !flags.Secretary && d.Roles.Secretary
	if claiming {
		if err := s.guard.Claim(ctx, regID, dirIndex); err != nil {
			return models.RoleFlags{}, err
		}
	}

	if err := s.store.ApplyRoleFlags(ctx, regID, dirIndex, flags); err != nil {
		return models.RoleFlags{}, err
	}
	if releasing {
		if err := s.guard.Release(ctx, regID, dirIndex); err != nil {
			return models.RoleFlags{}, err
		}
	}

	s.logger.InfoContext(ctx, "role changed",
		"registration_id", regID, "director", dirIndex, "role", role, "enabled", enabled)
	return flags, nil
}

// Apply is the pure transition function: it computes the flag set resulting
// from toggling one role. Enabling director-only drops every derived role;
// enabling a derived role drops director-only; disabling the last derived
// role falls back to director-only.
func Apply(current models.RoleFlags, role models.Role, enabled bool) (models.RoleFlags, error) {
	next := current
	switch role {
	case models.RoleDirectorOnly:
		if enabled {
			next = models.RoleFlags{DirectorOnly: true}
		} else if !current.Secretary && !current.Subscriber && !current.BeneficialOwner {
			// Director-only cannot be dropped without picking something else.
			next = models.RoleFlags{DirectorOnly: true}
		} else {
			next.DirectorOnly = false
		}
	case models.RoleSecretary:
		next.Secretary = enabled
	case models.RoleSubscriber:
		next.Subscriber = enabled
	case models.RoleBeneficialOwner:
		next.BeneficialOwner = enabled
	default:
		return current, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown role %q", role))
	}

	if next.Secretary || next.Subscriber || next.BeneficialOwner {
		next.DirectorOnly = false
	} else {
		next.DirectorOnly = true
	}
	return next, nil
}
