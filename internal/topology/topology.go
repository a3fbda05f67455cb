// Package topology turns session requests into live tmux sessions: one
// detached session per request, split into the configured pane count, with
// prompts staged into panes but never submitted.
package topology

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/TimHeckel/maestro/internal/config"
)

// Multiplexer is the subset of tmux operations the builder and injector need.
// *tmux.Client satisfies it.
type Multiplexer interface {
	NewSession(name, workDir string) error
	SplitWindow(target string, horizontal bool, workDir string) error
	SelectLayout(session, layout string) error
	RenameWindow(session, name string) error
	SendLiteralKeys(target, text string) error
	SendInterrupt(target string) error
	HasSession(name string) bool
	KillSession(name string) error
}

// maxSessionIDLen keeps generated ids within tmux's comfortable display width.
const maxSessionIDLen = 30

var sessionIDSanitizer = regexp.MustCompile(`[^A-Za-z0-9-]`)

// SessionID derives the fully qualified session id for a feature/session
// pair. Characters outside [A-Za-z0-9-] become '-', and the result is
// truncated so the same inputs always map to the same id.
func SessionID(featureName, sessionName string) string {
	id := sessionIDSanitizer.ReplaceAllString(featureName+"-"+sessionName, "-")
	if len(id) > maxSessionIDLen {
		id = id[:maxSessionIDLen]
	}
	return id
}

// Builder creates tmux sessions sized and capped per configuration.
type Builder struct {
	mux Multiplexer
	cfg config.TmuxConfig
}

func NewBuilder(mux Multiplexer, cfg config.TmuxConfig) *Builder {
	return &Builder{mux: mux, cfg: cfg}
}

// Build creates one detached session for the given request, rooted at
// workDir, and splits it into the requested pane count. If a session with the
// derived id already exists, Build returns that id with created=false and
// touches nothing, so re-running orchestration never duplicates panes. The
// created flag lets callers roll back only sessions they actually made.
func (b *Builder) Build(featureName string, session config.Session, workDir string) (id string, created bool, err error) {
	id = SessionID(featureName, session.Name)
	if b.mux.HasSession(id) {
		return id, false, nil
	}

	if err := b.mux.NewSession(id, workDir); err != nil {
		return "", false, err
	}

	// From here on the session exists, so failures still report created=true
	// and the id, letting the caller tear the partial session down.
	panes := b.EffectivePanes(session)
	for i := 1; i < panes; i++ {
		if err := b.mux.SplitWindow(id, splitHorizontal(session.Layout, i), workDir); err != nil {
			return id, true, fmt.Errorf("splitting pane %d: %w", i, err)
		}
	}

	if session.Layout != "" {
		if err := b.mux.SelectLayout(id, session.Layout); err != nil {
			return id, true, err
		}
	}
	if err := b.mux.RenameWindow(id, session.Name); err != nil {
		return id, true, err
	}
	return id, true, nil
}

// EffectivePanes bounds the requested pane count by the
// orientation-appropriate cap. Horizontal strips crowd out usable width
// faster than vertical stacks, so they carry the lower limit.
func (b *Builder) EffectivePanes(session config.Session) int {
	max := b.cfg.MaxPanesVertical
	if isHorizontal(session.Layout) {
		max = b.cfg.MaxPanesHorizontal
	}
	panes := session.Panes
	if panes < 1 {
		panes = 1
	}
	if max > 0 && panes > max {
		panes = max
	}
	return panes
}

func isHorizontal(layout string) bool {
	return layout == config.LayoutEvenHorizontal || layout == config.LayoutMainHorizontal
}

func isVertical(layout string) bool {
	return layout == config.LayoutEvenVertical || layout == config.LayoutMainVertical
}

// splitHorizontal picks the orientation for the split that creates pane i.
// Directional layouts fix the orientation; otherwise splits alternate by pane
// parity so the window never degenerates into one long strip.
func splitHorizontal(layout string, paneIndex int) bool {
	switch {
	case isHorizontal(layout):
		return true
	case isVertical(layout):
		return false
	default:
		return paneIndex%2 == 0
	}
}

// Injector stages literal command text into session panes.
type Injector struct {
	mux         Multiplexer
	settleDelay time.Duration

	// sleep is replaceable in tests.
	sleep func(time.Duration)
}

func NewInjector(mux Multiplexer, settleDelay time.Duration) *Injector {
	return &Injector{mux: mux, settleDelay: settleDelay, sleep: time.Sleep}
}

// Inject writes prompts into panes 1:1 by index. Each targeted pane gets an
// interrupt first, then a settling pause, then the literal prompt text. No
// Enter is ever sent: the operator reviews and submits. Panes beyond the
// prompt list are left untouched.
func (inj *Injector) Inject(sessionID string, prompts []string) error {
	for i, prompt := range prompts {
		if strings.TrimSpace(prompt) == "" {
			continue
		}
		target := fmt.Sprintf("%s.%d", sessionID, i)
		if err := inj.mux.SendInterrupt(target); err != nil {
			return fmt.Errorf("interrupting pane %d: %w", i, err)
		}
		inj.sleep(inj.settleDelay)
		if err := inj.mux.SendLiteralKeys(target, prompt); err != nil {
			return fmt.Errorf("injecting pane %d: %w", i, err)
		}
	}
	return nil
}
