// Package graph resolves feature dependency order. Given a requested set of
// feature names and the full feature graph, it produces a dependency-first
// execution order covering the transitive closure of the request.
package graph

import (
	"github.com/TimHeckel/maestro/internal/config"
	"github.com/TimHeckel/maestro/internal/errors"
)

// visit marks used during depth-first traversal.
type visitMark int

const (
	unvisited visitMark = iota
	visiting
	done
)

// Resolve expands the requested feature names into a complete, cycle-free,
// dependency-first order. Each feature appears exactly once; independent
// branches keep their discovery order. Dependencies referencing names absent
// from the feature map are skipped: they do not exist, so they cannot be
// provisioned. Callers are expected to validate name existence separately.
//
// Any cycle, including a feature depending on itself, returns a
// *errors.CircularDependencyError naming the cycle. No side effects occur.
func Resolve(requested []string, features map[string]config.Feature) ([]string, error) {
	marks := make(map[string]visitMark, len(features))
	order := make([]string, 0, len(features))
	var stack []string

	var visit func(name string) error
	visit = func(name string) error {
		feature, ok := features[name]
		if !ok {
			// Unknown names are skipped rather than failed; see above.
			return nil
		}
		switch marks[name] {
		case done:
			return nil
		case visiting:
			return errors.NewCircularDependencyError(cyclePath(stack, name))
		}

		marks[name] = visiting
		stack = append(stack, name)
		for _, dep := range feature.Dependencies {
			if err := visit(dep); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		marks[name] = done

		// Post-order append guarantees dependencies precede their dependents.
		order = append(order, name)
		return nil
	}

	for _, name := range requested {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// cyclePath extracts the cycle from the traversal stack, starting at the
// first occurrence of the repeated node and closing back on it.
func cyclePath(stack []string, repeat string) []string {
	start := 0
	for i, name := range stack {
		if name == repeat {
			start = i
			break
		}
	}
	cycle := make([]string, 0, len(stack)-start+1)
	cycle = append(cycle, stack[start:]...)
	cycle = append(cycle, repeat)
	return cycle
}
