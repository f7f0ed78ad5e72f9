package strata

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Definition is a declarative machine description, loadable from YAML.
// Guards and actions are referenced by name and bound from caller-
// supplied maps when the definition is built.
type Definition struct {
	ID   string   `yaml:"id" json:"id"`
	Root StateDef `yaml:"root" json:"root"`
}

// StateDef describes one state of a declarative definition.
type StateDef struct {
	ID       string                  `yaml:"id" json:"id"`
	Parallel bool                    `yaml:"parallel,omitempty" json:"parallel,omitempty"`
	Initial  string                  `yaml:"initial,omitempty" json:"initial,omitempty"`
	Entry    string                  `yaml:"entry,omitempty" json:"entry,omitempty"`
	Exit     string                  `yaml:"exit,omitempty" json:"exit,omitempty"`
	Children []StateDef              `yaml:"children,omitempty" json:"children,omitempty"`
	On       map[string][]HandlerDef `yaml:"on,omitempty" json:"on,omitempty"`
}

// HandlerDef describes one handler registration. An empty Target makes
// the handler an internal transition.
type HandlerDef struct {
	Target   string `yaml:"target,omitempty" json:"target,omitempty"`
	Guard    string `yaml:"guard,omitempty" json:"guard,omitempty"`
	Action   string `yaml:"action,omitempty" json:"action,omitempty"`
	External bool   `yaml:"external,omitempty" json:"external,omitempty"`
}

// Bindings resolves the guard and action names a definition refers to.
type Bindings struct {
	Guards  map[string]Guard
	Actions map[string]Action
}

// LoadDefinition parses and validates a YAML machine definition.
func LoadDefinition(data []byte) (*Definition, error) {
	var d Definition
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, NewDefinitionError("/", fmt.Sprintf("invalid yaml: %v", err))
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks the definition's structure: non-empty ids, no
// duplicate ids, every initial naming a direct child, and every
// transition target naming a state in the tree.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return NewDefinitionError("/", "machine id is required")
	}
	ids := make(map[string]bool)
	if err := collectIDs(&d.Root, "/"+d.Root.ID, ids); err != nil {
		return err
	}
	return validateState(&d.Root, "/"+d.Root.ID, ids)
}

func collectIDs(sd *StateDef, path string, ids map[string]bool) error {
	if sd.ID == "" {
		return NewDefinitionError(path, "state id is required")
	}
	if ids[sd.ID] {
		return NewDefinitionError(path, fmt.Sprintf("duplicate state id %q", sd.ID))
	}
	ids[sd.ID] = true
	for i := range sd.Children {
		c := &sd.Children[i]
		if err := collectIDs(c, path+"/"+c.ID, ids); err != nil {
			return err
		}
	}
	return nil
}

func validateState(sd *StateDef, path string, ids map[string]bool) error {
	if sd.Initial != "" {
		found := false
		for i := range sd.Children {
			if sd.Children[i].ID == sd.Initial {
				found = true
				break
			}
		}
		if !found {
			return NewDefinitionError(path, fmt.Sprintf("initial %q is not a child", sd.Initial))
		}
	}
	for event, handlers := range sd.On {
		for i, h := range handlers {
			if h.Target != "" && !ids[h.Target] {
				return NewDefinitionError(path, fmt.Sprintf("event %q handler %d: unknown target %q", event, i, h.Target))
			}
		}
	}
	for i := range sd.Children {
		c := &sd.Children[i]
		if err := validateState(c, path+"/"+c.ID, ids); err != nil {
			return err
		}
	}
	return nil
}

// Build assembles the state tree, binds it to a new machine, and
// registers all handlers. Guard and action names are resolved through b;
// an unresolvable name fails with a DefinitionError.
func (d *Definition) Build(b Bindings, opts ...Option) (*Machine, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	root, err := buildState(&d.Root, nil, b)
	if err != nil {
		return nil, err
	}
	m, err := NewMachine(root, opts...)
	if err != nil {
		return nil, err
	}
	if err := bindHandlers(&d.Root, m, b); err != nil {
		return nil, err
	}
	return m, nil
}

func buildState(sd *StateDef, parent *State, b Bindings) (*State, error) {
	var s *State
	var err error
	if sd.Parallel {
		s, err = NewParallelState(sd.ID, parent)
	} else {
		s, err = NewState(sd.ID, parent)
	}
	if err != nil {
		return nil, err
	}

	if sd.Entry != "" {
		action, ok := b.Actions[sd.Entry]
		if !ok {
			return nil, NewDefinitionError(sd.ID, fmt.Sprintf("unbound entry action %q", sd.Entry))
		}
		s.WithEntryAction(action)
	}
	if sd.Exit != "" {
		action, ok := b.Actions[sd.Exit]
		if !ok {
			return nil, NewDefinitionError(sd.ID, fmt.Sprintf("unbound exit action %q", sd.Exit))
		}
		s.WithExitAction(action)
	}

	for i := range sd.Children {
		if _, err := buildState(&sd.Children[i], s, b); err != nil {
			return nil, err
		}
	}
	if sd.Initial != "" {
		for _, c := range s.children {
			if c.id == sd.Initial {
				s.SetInitial(c)
				break
			}
		}
	}
	return s, nil
}

func bindHandlers(sd *StateDef, m *Machine, b Bindings) error {
	s := m.Lookup(sd.ID)
	for event, handlers := range sd.On {
		for _, hd := range handlers {
			var h Handler
			if hd.Target != "" {
				h.Target = m.Lookup(hd.Target)
			}
			if hd.Guard != "" {
				guard, ok := b.Guards[hd.Guard]
				if !ok {
					return NewDefinitionError(sd.ID, fmt.Sprintf("unbound guard %q", hd.Guard))
				}
				h.Guard = guard
			}
			if hd.Action != "" {
				action, ok := b.Actions[hd.Action]
				if !ok {
					return NewDefinitionError(sd.ID, fmt.Sprintf("unbound action %q", hd.Action))
				}
				h.Action = action
			}
			if hd.External {
				h.Kind = External
			}
			s.AddHandler(event, h)
		}
	}
	for i := range sd.Children {
		if err := bindHandlers(&sd.Children[i], m, b); err != nil {
			return err
		}
	}
	return nil
}
