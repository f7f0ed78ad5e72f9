package strata

// Option applies configuration to a Machine at construction time.
type Option func(*Machine)

// WithLogger injects the diagnostic sink the machine traces through.
// The default is NopLogger.
func WithLogger(log Logger) Option {
	return func(m *Machine) {
		if log != nil {
			m.log = log
		}
	}
}
