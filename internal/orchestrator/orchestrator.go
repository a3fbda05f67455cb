// Package orchestrator drives an end-to-end orchestration run: resolve the
// requested features into dependency order, provision one workspace per
// feature, build tmux sessions with staged prompts, annotate each workspace
// and persist the run record. A failure after workspaces exist rolls back
// everything created in the current run.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/TimHeckel/maestro/internal/annotate"
	"github.com/TimHeckel/maestro/internal/config"
	"github.com/TimHeckel/maestro/internal/errors"
	"github.com/TimHeckel/maestro/internal/graph"
	"github.com/TimHeckel/maestro/internal/logging"
	"github.com/TimHeckel/maestro/internal/state"
)

// Provisioner creates workspaces for an ordered feature set. The returned map
// must contain every workspace that was actually created, even on error.
type Provisioner interface {
	Provision(ctx context.Context, features []config.Feature, defaultBase string, parallel bool) (map[string]string, error)
}

// WorkspaceRemover deletes a feature's workspace during rollback.
type WorkspaceRemover interface {
	DeleteWorkspace(feature string, force bool) error
}

// SessionBuilder creates one tmux session per session request. Build reports
// whether it actually created the session; an id for an already-existing
// session comes back with created=false and must not be rolled back.
type SessionBuilder interface {
	Build(featureName string, session config.Session, workDir string) (id string, created bool, err error)
	EffectivePanes(session config.Session) int
}

// Injector stages prompts into a session's panes.
type Injector interface {
	Inject(sessionID string, prompts []string) error
}

// SessionKiller tears down tmux sessions during rollback.
type SessionKiller interface {
	KillSession(name string) error
}

// Annotator writes the per-workspace context document.
type Annotator func(feature config.Feature, workDir, mode string) error

// Tracker persists the orchestration record.
type Tracker interface {
	Save(orchestra *state.Orchestra) error
	Load() (*state.Orchestra, error)
}

// Options control one orchestration run.
type Options struct {
	// Parallel provisions workspaces concurrently.
	Parallel bool
	// ContextMode is annotate.ModeSplit or annotate.ModeShared.
	ContextMode string
	// DefaultBase is the base branch for features that do not name their own.
	DefaultBase string
}

// Result is the outcome of a successful orchestration run.
type Result struct {
	// Order is the resolved dependency-first feature order.
	Order []string
	// Workspaces maps feature name to workspace path.
	Workspaces map[string]string
	// State is the persisted run record.
	State *state.Orchestra
	// Warning is non-nil when everything was created but the state document
	// could not be written. The workspaces and sessions remain usable.
	Warning error
}

// Orchestrator wires the collaborators together.
type Orchestrator struct {
	features    map[string]config.Feature
	provisioner Provisioner
	remover     WorkspaceRemover
	builder     SessionBuilder
	injector    Injector
	killer      SessionKiller
	annotator   Annotator
	tracker     Tracker
	logger      *logging.Logger

	now func() time.Time
}

// New creates an Orchestrator over an already-validated feature graph.
func New(
	features map[string]config.Feature,
	provisioner Provisioner,
	remover WorkspaceRemover,
	builder SessionBuilder,
	injector Injector,
	killer SessionKiller,
	annotator Annotator,
	tracker Tracker,
	logger *logging.Logger,
) *Orchestrator {
	if logger == nil {
		logger = logging.NopLogger()
	}
	if annotator == nil {
		annotator = annotate.Annotate
	}
	return &Orchestrator{
		features:    features,
		provisioner: provisioner,
		remover:     remover,
		builder:     builder,
		injector:    injector,
		killer:      killer,
		annotator:   annotator,
		tracker:     tracker,
		logger:      logger,
		now:         time.Now,
	}
}

// Resolve expands the requested feature names into dependency-first order.
// Every requested name must exist in the feature graph.
func (o *Orchestrator) Resolve(requested []string) ([]string, error) {
	for _, name := range requested {
		if _, ok := o.features[name]; !ok {
			return nil, fmt.Errorf("%w: %s", errors.ErrFeatureNotFound, name)
		}
	}
	return graph.Resolve(requested, o.features)
}

// Provision resolves the requested features and creates their workspaces,
// without building sessions or persisting state. Rollback on failure works
// the same as in Run.
func (o *Orchestrator) Provision(ctx context.Context, requested []string, opts Options) (map[string]string, error) {
	order, err := o.Resolve(requested)
	if err != nil {
		return nil, err
	}
	created, err := o.provisioner.Provision(ctx, o.orderedFeatures(order), opts.DefaultBase, opts.Parallel)
	if err != nil {
		o.rollbackWorkspaces(created, err)
		return nil, err
	}
	return created, nil
}

// Run executes one full orchestration over the requested feature set.
//
// Stages run in order: resolve, provision, build sessions, persist. A cycle
// fails before anything is created. A provisioning or session failure deletes
// every workspace created in this run, kills any sessions created in this
// run, and re-raises the original error with cleanup failures attached. A
// persistence failure does not roll back: the created workspaces and sessions
// are valid, so Run returns the Result with Warning set alongside the same
// warning as the error value.
func (o *Orchestrator) Run(ctx context.Context, requested []string, opts Options) (*Result, error) {
	if opts.ContextMode == "" {
		opts.ContextMode = annotate.ModeSplit
	}

	order, err := o.Resolve(requested)
	if err != nil {
		return nil, err
	}
	o.logger.Info("resolved feature order", "order", order)

	created, err := o.provisioner.Provision(ctx, o.orderedFeatures(order), opts.DefaultBase, opts.Parallel)
	if err != nil {
		o.rollbackWorkspaces(created, err)
		return nil, err
	}

	sessions, err := o.buildSessions(created, order, opts)
	if err != nil {
		o.rollbackSessions(sessionIDs(sessions), err)
		o.rollbackWorkspaces(created, err)
		return nil, err
	}

	result := &Result{
		Order:      order,
		Workspaces: created,
		State:      o.buildState(order, created, sessions),
	}
	if err := o.tracker.Save(result.State); err != nil {
		o.logger.Warn("state write failed; created resources are kept", "error", err)
		result.Warning = errors.NewPersistenceWarning(err)
		return result, result.Warning
	}
	o.logger.Info("orchestration complete", "features", len(order))
	return result, nil
}

// builtSession is one rollback-ledger entry from the session stage. Only
// sessions this run created carry created=true; pre-existing sessions found
// by the idempotency check are recorded for state but never rolled back.
type builtSession struct {
	feature string
	name    string
	id      string
	panes   int
	created bool
}

// buildSessions creates sessions feature by feature, in resolved order, and
// annotates each workspace after its sessions complete. The returned slice is
// the ledger of everything created so far, valid even on error.
func (o *Orchestrator) buildSessions(workspaces map[string]string, order []string, opts Options) (map[string][]builtSession, error) {
	built := make(map[string][]builtSession)
	for _, name := range order {
		feat := o.features[name]
		workDir := workspaces[name]
		log := o.logger.WithFeature(name)

		for _, sess := range feat.Sessions {
			id, created, err := o.builder.Build(name, sess, workDir)
			if err != nil {
				// A partial session this run created still joins the ledger
				// so rollback can remove it.
				if created && id != "" {
					built[name] = append(built[name], builtSession{feature: name, name: sess.Name, id: id, created: true})
				}
				return built, errors.NewSessionBuildError(name, sess.Name, err)
			}
			panes := o.builder.EffectivePanes(sess)
			built[name] = append(built[name], builtSession{feature: name, name: sess.Name, id: id, panes: panes, created: created})
			log.Info("session built", "session", id, "panes", panes, "created", created)

			prompts := sess.Prompts
			if len(prompts) > panes {
				prompts = prompts[:panes]
			}
			if err := o.injector.Inject(id, prompts); err != nil {
				return built, errors.NewSessionBuildError(name, sess.Name, err)
			}
		}

		if err := o.annotator(feat, workDir, opts.ContextMode); err != nil {
			return built, errors.NewSessionBuildError(name, "", err)
		}
	}
	return built, nil
}

// rollbackWorkspaces force-deletes every workspace created in this run.
// Cleanup failures are logged and attached to the original error, never
// masking it.
func (o *Orchestrator) rollbackWorkspaces(created map[string]string, cause error) {
	for name := range created {
		o.logger.Warn("rolling back workspace", "feature", name)
		if err := o.remover.DeleteWorkspace(name, true); err != nil {
			o.logger.Error("workspace rollback failed", "feature", name, "error", err)
			errors.AttachCleanupFailure(cause, err)
		}
	}
}

// rollbackSessions best-effort kills every session created in this run.
func (o *Orchestrator) rollbackSessions(ids []string, cause error) {
	for _, id := range ids {
		o.logger.Warn("killing session", "session", id)
		if err := o.killer.KillSession(id); err != nil {
			o.logger.Error("session kill failed", "session", id, "error", err)
			errors.AttachCleanupFailure(cause, err)
		}
	}
}

// sessionIDs returns the ids of sessions this run actually created.
// Pre-existing sessions returned by the builder's idempotency check are
// excluded: rollback must never kill a session the run did not make.
func sessionIDs(built map[string][]builtSession) []string {
	var ids []string
	for _, sessions := range built {
		for _, s := range sessions {
			if s.created {
				ids = append(ids, s.id)
			}
		}
	}
	return ids
}

func (o *Orchestrator) orderedFeatures(order []string) []config.Feature {
	feats := make([]config.Feature, 0, len(order))
	for _, name := range order {
		feats = append(feats, o.features[name])
	}
	return feats
}

func (o *Orchestrator) buildState(order []string, workspaces map[string]string, built map[string][]builtSession) *state.Orchestra {
	now := o.now()
	orchestra := &state.Orchestra{
		CreatedAt: now,
		Status:    state.StatusActive,
	}
	for _, name := range order {
		feat := state.Feature{
			Name:          name,
			WorkspacePath: workspaces[name],
			Status:        state.StatusCreated,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		for _, s := range built[name] {
			feat.Sessions = append(feat.Sessions, state.Session{
				Name:      s.name,
				SessionID: s.id,
				Panes:     s.panes,
				Status:    state.StatusCreated,
			})
		}
		orchestra.Features = append(orchestra.Features, feat)
	}
	return orchestra
}
