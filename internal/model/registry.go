package model

import (
	"fmt"
	"sort"

	"github.com/nmtgo/beamline/internal/checkpoint"
)

// Factory builds a Member from its configuration and stored weights.
type Factory func(cfg *Config, weights *checkpoint.File) (Member, error)

// UnknownModelTypeError reports a model_type tag with no registered
// factory.
type UnknownModelTypeError struct {
	Type string
}

func (e *UnknownModelTypeError) Error() string {
	return fmt.Sprintf("unknown model type %q (supported: %v)", e.Type, Types())
}

var registry = map[string]Factory{}

// Register binds a model-type tag to a factory. Called from init functions;
// duplicate registration is a programming error.
func Register(name string, f Factory) {
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("model: duplicate registration of %q", name))
	}
	registry[name] = f
}

// Types returns the registered model-type tags in sorted order.
func Types() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New reconstructs the declared model type from a checkpoint.
func New(cfg *Config, weights *checkpoint.File) (Member, error) {
	factory, ok := registry[cfg.ModelType]
	if !ok {
		return nil, &UnknownModelTypeError{Type: cfg.ModelType}
	}
	return factory(cfg, weights)
}
