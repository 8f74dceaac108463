package schema

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/rowset/pkg/types"
)

// document is the on-disk shape of a schema file.
type document struct {
	Entities []entityDoc `yaml:"entities"`
}

type entityDoc struct {
	Name     string      `yaml:"name"`
	Columns  []columnDoc `yaml:"columns"`
	Children []childDoc  `yaml:"children"`
}

type columnDoc struct {
	Name       string        `yaml:"name"`
	Type       string        `yaml:"type"`
	Required   bool          `yaml:"required"`
	Default    any           `yaml:"default"`
	Min        *float64      `yaml:"min"`
	Max        *float64      `yaml:"max"`
	Regex      string        `yaml:"regex"`
	ErrorMsg   string        `yaml:"error_msg"`
	Unique     bool          `yaml:"unique"`
	Hashed     bool          `yaml:"hashed"`
	OneOf      []any         `yaml:"one_of"`
	References *referenceDoc `yaml:"references"`
}

type referenceDoc struct {
	Entity     string `yaml:"entity"`
	LocalKey   string `yaml:"local_key"`
	ForeignKey string `yaml:"foreign_key"`
	As         string `yaml:"as"`
}

type childDoc struct {
	Entity     string `yaml:"entity"`
	LocalKey   string `yaml:"local_key"`
	ForeignKey string `yaml:"foreign_key"`
	As         string `yaml:"as"`
	OnDelete   string `yaml:"on_delete"`
}

// LoadFile reads a YAML schema file and returns its definitions in file
// order.
func LoadFile(path string) ([]*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema %s: %w", path, err)
	}
	defs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing schema %s: %w", path, err)
	}
	return defs, nil
}

// Parse decodes a YAML schema document:
//
//	entities:
//	  - name: Users
//	    columns:
//	      - {name: id, type: string}
//	      - {name: email, type: string, required: true, unique: true}
//	    children:
//	      - {entity: Orders, foreign_key: userId, as: orders, on_delete: cascade}
func Parse(data []byte) ([]*Definition, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrSchema, err)
	}

	defs := make([]*Definition, 0, len(doc.Entities))
	for _, ent := range doc.Entities {
		columns := make([]Column, 0, len(ent.Columns))
		for _, cd := range ent.Columns {
			col, err := cd.column()
			if err != nil {
				return nil, fmt.Errorf("%s: %w", ent.Name, err)
			}
			columns = append(columns, col)
		}

		children := make([]Child, 0, len(ent.Children))
		for _, ch := range ent.Children {
			children = append(children, Child{
				Entity:     ch.Entity,
				LocalKey:   ch.LocalKey,
				ForeignKey: ch.ForeignKey,
				As:         ch.As,
				OnDelete:   DeletionPolicy(ch.OnDelete),
			})
		}

		def, err := New(ent.Name, columns, children...)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func (cd columnDoc) column() (Column, error) {
	col := Column{
		Name:     cd.Name,
		Type:     ColumnType(cd.Type),
		Required: cd.Required,
		Default:  cd.Default,
		Min:      cd.Min,
		Max:      cd.Max,
		ErrorMsg: cd.ErrorMsg,
		Unique:   cd.Unique,
		Hashed:   cd.Hashed,
	}
	if cd.Regex != "" {
		re, err := regexp.Compile(cd.Regex)
		if err != nil {
			return Column{}, fmt.Errorf("%w: column %q: %v", types.ErrSchema, cd.Name, err)
		}
		col.Pattern = re
	}
	if len(cd.OneOf) > 0 {
		col.Validator = OneOf(cd.OneOf...)
	}
	if cd.References != nil {
		col.References = &Reference{
			Entity:     cd.References.Entity,
			LocalKey:   cd.References.LocalKey,
			ForeignKey: cd.References.ForeignKey,
			As:         cd.References.As,
		}
	}
	return col, nil
}
