package medial

import (
	"os"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the file form of a database handle and its entities:
//
//	uri: sqlite::memory:
//	log:
//	  level: debug
//	entities:
//	  product:
//	    table: products
//	    properties:
//	      id: {auto: true}
//	      name: {validator: nonempty}
//	      colour: {default: GRY, validator: oneof, validator_params: [GRY, BLK]}
type Config struct {
	URI      string                  `yaml:"uri"`
	Log      LogConfig               `yaml:"log,omitempty"`
	Entities map[string]EntityConfig `yaml:"entities,omitempty"`
}

type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

type EntityConfig struct {
	Table      string       `yaml:"table"`
	Schema     string       `yaml:"schema,omitempty"`
	Key        string       `yaml:"key,omitempty"`
	Properties PropertyList `yaml:"properties"`
}

type PropertyConfig struct {
	Name            string `yaml:"-"`
	Column          string `yaml:"column,omitempty"`
	Type            string `yaml:"type,omitempty"`
	Default         any    `yaml:"default,omitempty"`
	Auto            bool   `yaml:"auto,omitempty"`
	ReadOnly        bool   `yaml:"readonly,omitempty"`
	Validator       string `yaml:"validator,omitempty"`
	ValidatorParams any    `yaml:"validator_params,omitempty"`
}

// PropertyList is a YAML mapping of property name to options that keeps
// the order of the file.
type PropertyList []PropertyConfig

func (l *PropertyList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errors.Errorf("line %d: properties must be a mapping", node.Line)
	}

	list := make(PropertyList, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var p PropertyConfig
		// a bare "name:" declares a property with no options
		if node.Content[i+1].Tag != "!!null" {
			if err := node.Content[i+1].Decode(&p); err != nil {
				return errors.WithMessagef(err, "property '%s'", node.Content[i].Value)
			}
		}
		p.Name = node.Content[i].Value
		list = append(list, p)
	}
	*l = list

	return nil
}

func (l PropertyList) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, p := range l {
		var value yaml.Node
		if err := value.Encode(p); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: p.Name},
			&value,
		)
	}
	return node, nil
}

// LoadConfig reads and parses a YAML config file. Environment variables in
// the uri are expanded.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "config %s", path)
	}

	return cfg, nil
}

func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}
	cfg.URI = os.ExpandEnv(cfg.URI)

	return &cfg, nil
}

// EntityNames returns the configured entity names, sorted.
func (c *Config) EntityNames() []string {
	names := make([]string, 0, len(c.Entities))
	for name := range c.Entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Spec converts an entity config into an EntitySpec, resolving validators
// by builtin name.
func (ec EntityConfig) Spec() (EntitySpec, error) {
	spec := EntitySpec{
		Table:  ec.Table,
		Schema: ec.Schema,
		Key:    ec.Key,
	}

	for _, pc := range ec.Properties {
		p := Property{
			Name:            pc.Name,
			Column:          pc.Column,
			Type:            pc.Type,
			Default:         pc.Default,
			Auto:            pc.Auto,
			ReadOnly:        pc.ReadOnly,
			ValidatorParams: pc.ValidatorParams,
		}
		if pc.Validator != "" {
			v, ok := LookupValidator(pc.Validator)
			if !ok {
				return EntitySpec{}, errors.Errorf("property '%s': unknown validator '%s'", pc.Name, pc.Validator)
			}
			p.Validator = v
		}
		spec.Properties = append(spec.Properties, p)
	}

	return spec, nil
}

// Register adds every configured entity to r.
func (c *Config) Register(r *Registry) error {
	for _, name := range c.EntityNames() {
		spec, err := c.Entities[name].Spec()
		if err != nil {
			return errors.WithMessagef(err, "entity '%s'", name)
		}
		if _, err := r.Register(name, spec); err != nil {
			return err
		}
	}
	return nil
}

// Open opens the configured database with the configured entities
// registered on the handle.
func (c *Config) Open(options ...Option) (*DB, error) {
	if c.URI == "" {
		return nil, ErrUnconfigured
	}

	db, err := Open(c.URI, options...)
	if err != nil {
		return nil, err
	}

	if err := c.Register(db.Registry()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
