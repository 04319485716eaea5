package trade

import "go.uber.org/zap"

var log = zap.NewNop()

// SetLogger routes package diagnostics (verbose progress, warnings about
// skipped contents) through the given logger. Defaults to a no-op.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	log = l
}
