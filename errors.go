package strata

import "fmt"

// ErrorCode identifies specific failure conditions in the engine.
type ErrorCode int

const (
	// No error occurred
	ErrCodeNone ErrorCode = iota
	// A state id collides with one already in the machine's registry
	ErrCodeDuplicateState
	// A root state is already bound to another machine
	ErrCodeRootRebound
	// Machine or state configuration is invalid
	ErrCodeInvalidConfiguration
	// A declarative definition failed validation or binding
	ErrCodeInvalidDefinition
	// Two states of one machine have no common ancestor
	ErrCodeNoCommonAncestor
)

// ConfigurationError reports a programmer error in the state tree:
// duplicate identities, rebinding a root to a second machine, a
// malformed initial-state declaration, or a transition target with no
// common ancestor. It is raised fail-fast and never recovered
// internally.
type ConfigurationError struct {
	Code    ErrorCode
	StateID string
	Issue   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error [%s]: %s", e.StateID, e.Issue)
}

// NewConfigurationError creates a configuration error for the given state.
func NewConfigurationError(stateID, issue string) *ConfigurationError {
	return &ConfigurationError{
		Code:    ErrCodeInvalidConfiguration,
		StateID: stateID,
		Issue:   issue,
	}
}

// NewDuplicateStateError creates the error for a state id that already
// exists in the owning machine's registry.
func NewDuplicateStateError(stateID string) *ConfigurationError {
	return &ConfigurationError{
		Code:    ErrCodeDuplicateState,
		StateID: stateID,
		Issue:   fmt.Sprintf("state %q already registered", stateID),
	}
}

// NewRootReboundError creates the error for binding a root state to a
// second machine.
func NewRootReboundError(stateID string) *ConfigurationError {
	return &ConfigurationError{
		Code:    ErrCodeRootRebound,
		StateID: stateID,
		Issue:   fmt.Sprintf("root %q is already bound to a machine", stateID),
	}
}

// NewNoCommonAncestorError creates the error for two states of one
// machine whose root paths share no ancestor: a corrupted tree or a
// transition target taken from a foreign machine. The engine panics
// with it at dispatch time.
func NewNoCommonAncestorError(leftID, rightID string) *ConfigurationError {
	return &ConfigurationError{
		Code:    ErrCodeNoCommonAncestor,
		StateID: leftID,
		Issue:   fmt.Sprintf("no common ancestor between %q and %q", leftID, rightID),
	}
}

// DefinitionError reports an invalid declarative machine definition: an
// unknown transition target, an unresolvable guard or action name, or a
// structurally invalid state entry. Path locates the offending element.
type DefinitionError struct {
	Path   string
	Reason string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("definition error at %s: %s", e.Path, e.Reason)
}

// NewDefinitionError creates a definition error at the given path.
func NewDefinitionError(path, reason string) *DefinitionError {
	return &DefinitionError{Path: path, Reason: reason}
}

// IsConfigurationError checks if an error is a ConfigurationError.
func IsConfigurationError(err error) bool {
	_, ok := err.(*ConfigurationError)
	return ok
}

// IsDefinitionError checks if an error is a DefinitionError.
func IsDefinitionError(err error) bool {
	_, ok := err.(*DefinitionError)
	return ok
}

// GetErrorCode returns the error code for known error types.
func GetErrorCode(err error) ErrorCode {
	switch e := err.(type) {
	case *ConfigurationError:
		return e.Code
	case *DefinitionError:
		return ErrCodeInvalidDefinition
	default:
		return ErrCodeNone
	}
}
