package stream

import "go.uber.org/zap"

// Guarded wraps a reaction so that a returned error or a panic inside it is
// logged under the given label and contained. A failing reaction never takes
// down its siblings or the process; the failed correction is simply retried
// by whatever event arrives next.
func Guarded[T any](log *zap.Logger, label string, fn func(T) error) func(T) {
	return func(v T) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("reaction panicked",
					zap.String("reaction", label),
					zap.Any("panic", r))
			}
		}()
		if err := fn(v); err != nil {
			log.Error("reaction failed",
				zap.String("reaction", label),
				zap.Error(err))
		}
	}
}