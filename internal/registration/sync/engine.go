// Package sync mirrors field values between a director record and the
// records derived from its roles. Propagation is driven by store events, not
// by presentation callbacks, and terminates because the store only emits an
// event when a write actually changes a value.
package sync

import (
	"context"
	"log/slog"
	gosync "sync"

	"github.com/google/uuid"

	"github.com/SmartForm247/EasyForm2/internal/platform/metrics"
	"github.com/SmartForm247/EasyForm2/internal/registration/models"
	"github.com/SmartForm247/EasyForm2/internal/registration/schema"
	"github.com/SmartForm247/EasyForm2/internal/registration/store"
)

// Result reports what a sync request did. A coalesced request was folded
// into a run already in flight for the same director; the in-flight run
// replays once from current state, so nothing is lost.
type Result struct {
	Coalesced bool
}

// Engine owns the mirroring state machine. One in-flight mirror run per
// director; concurrent or re-entrant requests for the same director set a
// pending mark instead of stacking.
type Engine struct {
	store   store.Store
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu     gosync.Mutex
	states map[dirKey]*dirState
}

type dirKey struct {
	reg uuid.UUID
	dir int
}

type dirState struct {
	inflight bool
	pending  bool
}

// Option configures the engine.
type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func New(st store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  st,
		logger: slog.Default(),
		states: make(map[dirKey]*dirState),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HandleEvent is the store subscription entry point.
func (e *Engine) HandleEvent(ctx context.Context, ev store.Event) {
	switch ev.Type {
	case store.EventFieldChanged:
		e.onFieldChanged(ctx, ev)
	case store.EventRoleInputChanged:
		e.onRoleInputChanged(ctx, ev)
	case store.EventRolesChanged:
		e.onRolesChanged(ctx, ev)
	case store.EventRecordRemoved:
		e.forget(ev.RegistrationID, ev.Index)
	}
}

// SyncFromDirector mirrors the director's person fields and role inputs into
// every record derived from its roles.
func (e *Engine) SyncFromDirector(ctx context.Context, regID uuid.UUID, dirIndex int) (Result, error) {
	return e.run(ctx, regID, dirIndex)
}

// SyncFromLinked writes one changed field of a linked record back to its
// director. The resulting director change fans out to the other derived
// records through the normal event path.
func (e *Engine) SyncFromLinked(ctx context.Context, regID uuid.UUID, kind schema.RecordKind, dirIndex int, f schema.Field, value string) error {
	switch f {
	case schema.FieldSharePercent, schema.FieldVotingRights:
		return e.store.SetRoleInput(ctx, regID, dirIndex, f, value)
	case schema.FieldDirectPercent, schema.FieldIndirectPercent:
		// Ownership percentages live on the owner record only.
		return nil
	}
	return e.store.SetField(ctx, regID, schema.KindDirector, dirIndex, f, value)
}

// SyncFromSecretary writes one changed secretary field back to the director
// holding the secretary flag, if any.
func (e *Engine) SyncFromSecretary(ctx context.Context, regID uuid.UUID, f schema.Field, value string) error {
	reg, err := e.store.Get(ctx, regID)
	if err != nil {
		return err
	}
	holder := reg.SecretaryHolder()
	if holder == 0 {
		return nil
	}
	if f == schema.FieldQualification {
		return e.store.SetRoleInput(ctx, regID, holder, f, value)
	}
	return e.store.SetField(ctx, regID, schema.KindDirector, holder, f, value)
}

func (e *Engine) onFieldChanged(ctx context.Context, ev store.Event) {
	switch ev.Kind {
	case schema.KindDirector:
		if _, err := e.run(ctx, ev.RegistrationID, ev.Index); err != nil {
			e.logger.WarnContext(ctx, "director sync failed",
				"registration_id", ev.RegistrationID, "director", ev.Index, "error", err)
		}
	case schema.KindSubscriber, schema.KindOwner:
		if ev.LinkTag == 0 {
			return
		}
		if err := e.SyncFromLinked(ctx, ev.RegistrationID, ev.Kind, ev.LinkTag, ev.Field, ev.Value); err != nil {
			e.logger.WarnContext(ctx, "linked record sync failed",
				"registration_id", ev.RegistrationID, "kind", ev.Kind, "index", ev.Index, "error", err)
		}
	case schema.KindSecretary:
		if err := e.SyncFromSecretary(ctx, ev.RegistrationID, ev.Field, ev.Value); err != nil {
			e.logger.WarnContext(ctx, "secretary sync failed",
				"registration_id", ev.RegistrationID, "error", err)
		}
	}
}

func (e *Engine) onRoleInputChanged(ctx context.Context, ev store.Event) {
	if _, err := e.run(ctx, ev.RegistrationID, ev.Index); err != nil {
		e.logger.WarnContext(ctx, "role input sync failed",
			"registration_id", ev.RegistrationID, "director", ev.Index, "error", err)
	}
}

// onRolesChanged reconciles the derived record structure with the new flag
// set, then mirrors content into whatever is now linked.
func (e *Engine) onRolesChanged(ctx context.Context, ev store.Event) {
	regID, dirIndex := ev.RegistrationID, ev.Index

	if ev.Roles.Subscriber && !ev.PrevRoles.Subscriber {
		if _, err := e.store.EnsureLinked(ctx, regID, schema.KindSubscriber, dirIndex); err != nil {
			e.logger.WarnContext(ctx, "link subscriber failed", "registration_id", regID, "director", dirIndex, "error", err)
		}
	}
	if !ev.Roles.Subscriber && ev.PrevRoles.Subscriber {
		if err := e.store.RemoveLinked(ctx, regID, schema.KindSubscriber, dirIndex); err != nil {
			e.logger.WarnContext(ctx, "unlink subscriber failed", "registration_id", regID, "director", dirIndex, "error", err)
		}
	}
	if ev.Roles.BeneficialOwner && !ev.PrevRoles.BeneficialOwner {
		if _, err := e.store.EnsureLinked(ctx, regID, schema.KindOwner, dirIndex); err != nil {
			e.logger.WarnContext(ctx, "link owner failed", "registration_id", regID, "director", dirIndex, "error", err)
		}
	}
	if !ev.Roles.BeneficialOwner && ev.PrevRoles.BeneficialOwner {
		if err := e.store.RemoveLinked(ctx, regID, schema.KindOwner, dirIndex); err != nil {
			e.logger.WarnContext(ctx, "unlink owner failed", "registration_id", regID, "director", dirIndex, "error", err)
		}
	}

	if _, err := e.run(ctx, regID, dirIndex); err != nil {
		e.logger.WarnContext(ctx, "role change sync failed",
			"registration_id", regID, "director", dirIndex, "error", err)
	}
}

// run executes one mirror pass for a director, coalescing re-entrant and
// concurrent requests. Pending marks set while a pass is running trigger a
// single replay from current state.
func (e *Engine) run(ctx context.Context, regID uuid.UUID, dirIndex int) (Result, error) {
	key := dirKey{reg: regID, dir: dirIndex}
	e.mu.Lock()
	st, ok := e.states[key]
	if !ok {
		st = &dirState{}
		e.states[key] = st
	}
	if st.inflight {
		st.pending = true
		e.mu.Unlock()
		if e.metrics != nil {
			e.metrics.Syncs.WithLabelValues("coalesced").Inc()
		}
		return Result{Coalesced: true}, nil
	}
	st.inflight = true
	e.mu.Unlock()

	for {
		err := e.mirror(ctx, regID, dirIndex)

		e.mu.Lock()
		if err != nil || !st.pending {
			st.inflight = false
			e.mu.Unlock()
			if err == nil && e.metrics != nil {
				e.metrics.Syncs.WithLabelValues("applied").Inc()
			}
			return Result{}, err
		}
		st.pending = false
		e.mu.Unlock()
	}
}

// mirror copies the director's current content into its derived records. All
// writes go through the store, so unchanged values emit nothing and the
// cascade settles.
func (e *Engine) mirror(ctx context.Context, regID uuid.UUID, dirIndex int) error {
	reg, err := e.store.Get(ctx, regID)
	if err != nil {
		return err
	}
	d := reg.Director(dirIndex)
	if d == nil {
		// Removed while a sync was pending; nothing to mirror.
		return nil
	}

	if d.Roles.Subscriber {
		if err := e.mirrorInto(ctx, reg, d, schema.KindSubscriber); err != nil {
			return err
		}
	}
	if d.Roles.BeneficialOwner {
		if err := e.mirrorInto(ctx, reg, d, schema.KindOwner); err != nil {
			return err
		}
	}
	if d.Roles.Secretary && reg.SecretaryHolder() == dirIndex {
		for _, f := range schema.PersonFields() {
			if err := e.store.SetField(ctx, regID, schema.KindSecretary, 0, f, d.Fields[f]); err != nil {
				return err
			}
		}
		if err := e.store.SetField(ctx, regID, schema.KindSecretary, 0, schema.FieldQualification, d.RoleInputs.Qualification); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) mirrorInto(ctx context.Context, reg *models.Registration, d *models.DirectorRecord, kind schema.RecordKind) error {
	index, err := e.store.EnsureLinked(ctx, reg.ID, kind, d.Index)
	if err != nil {
		return err
	}
	for _, f := range schema.PersonFields() {
		if err := e.store.SetField(ctx, reg.ID, kind, index, f, d.Fields[f]); err != nil {
			return err
		}
	}
	switch kind {
	case schema.KindSubscriber:
		return e.store.SetField(ctx, reg.ID, kind, index, schema.FieldSharePercent, d.RoleInputs.SharePercent)
	case schema.KindOwner:
		return e.store.SetField(ctx, reg.ID, kind, index, schema.FieldVotingRights, d.RoleInputs.VotingRights)
	}
	return nil
}

func (e *Engine) forget(regID uuid.UUID, dirIndex int) {
	e.mu.Lock()
	delete(e.states, dirKey{reg: regID, dir: dirIndex})
	e.mu.Unlock()
}
