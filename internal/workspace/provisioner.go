package workspace

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/TimHeckel/maestro/internal/config"
	"github.com/TimHeckel/maestro/internal/errors"
	"github.com/TimHeckel/maestro/internal/logging"
)

// Provisioner creates workspaces for an ordered feature set.
type Provisioner struct {
	manager *Manager
	logger  *logging.Logger
}

func NewProvisioner(manager *Manager, logger *logging.Logger) *Provisioner {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Provisioner{manager: manager, logger: logger}
}

// Provision creates one workspace per feature, based on feature.Base or
// defaultBase. In sequential mode a failure stops the remaining creations; in
// parallel mode all creations are issued at once, awaited together, and the
// first error wins. Either way the returned map holds every workspace that
// was actually created, including on error, so the caller can roll back
// exactly what exists. This component never cleans up after itself.
func (p *Provisioner) Provision(ctx context.Context, features []config.Feature, defaultBase string, parallel bool) (map[string]string, error) {
	created := make(map[string]string, len(features))
	if parallel {
		return created, p.provisionParallel(ctx, features, defaultBase, created)
	}

	for _, feat := range features {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		path, err := p.createOne(feat, defaultBase)
		if err != nil {
			return created, err
		}
		created[feat.Name] = path
	}
	return created, nil
}

func (p *Provisioner) provisionParallel(ctx context.Context, features []config.Feature, defaultBase string, created map[string]string) error {
	var mu sync.Mutex
	g, _ := errgroup.WithContext(ctx)
	for _, feat := range features {
		feat := feat
		g.Go(func() error {
			path, err := p.createOne(feat, defaultBase)
			if err != nil {
				return err
			}
			mu.Lock()
			created[feat.Name] = path
			mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}

func (p *Provisioner) createOne(feat config.Feature, defaultBase string) (string, error) {
	base := feat.Base
	if base == "" {
		base = defaultBase
	}
	p.logger.Debug("creating workspace", "feature", feat.Name, "base", base)
	path, err := p.manager.CreateWorkspace(feat.Name, base)
	if err != nil {
		return "", errors.NewProvisioningError(feat.Name, err)
	}
	p.logger.Info("workspace created", "feature", feat.Name, "path", path)
	return path, nil
}
