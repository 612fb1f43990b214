package medial

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a DB.
type Option func(o *option)

type option struct {
	registry     *Registry
	maxOpenConns int
	registerer   prometheus.Registerer
}

// WithRegistry shares a descriptor registry between handles.
func WithRegistry(r *Registry) Option {
	return func(o *option) {
		o.registry = r
	}
}

// WithMaxOpenConns bounds the connection pool. SQLite handles always use a
// single connection.
func WithMaxOpenConns(n int) Option {
	return func(o *option) {
		o.maxOpenConns = n
	}
}

// WithMetrics registers the package collectors with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *option) {
		o.registerer = reg
	}
}

func registerCollectors(reg prometheus.Registerer) error {
	for _, c := range Collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// EntityOption configures how an entity is constructed.
type EntityOption func(o *entityOption)

type entityOption struct {
	persist bool
	fields  []string
}

func newEntityOption(options []EntityOption) *entityOption {
	opt := &entityOption{persist: true}
	for _, op := range options {
		op(opt)
	}
	return opt
}

// NonPersistent marks the entity as one that must never be committed.
func NonPersistent() EntityOption {
	return func(o *entityOption) {
		o.persist = false
	}
}

// WithFields restricts a load to the given properties.
func WithFields(fields ...string) EntityOption {
	return func(o *entityOption) {
		o.fields = fields
	}
}
