package mdnice

import (
	"fmt"
	"log/slog"
)

// Notifier receives error notifications. Implementations must be safe to
// call from the goroutine running the conversion; a panicking Notifier is
// recovered and logged.
type Notifier interface {
	Notify(msg string, fields map[string]any)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(msg string, fields map[string]any)

// Notify calls f(msg, fields).
func (f NotifierFunc) Notify(msg string, fields map[string]any) { f(msg, fields) }

// notify forwards an error to the notifier, if any, tagging it with stage.
func notify(log *slog.Logger, n Notifier, stage string, err error, fields map[string]any) {
	if n == nil || err == nil {
		return
	}
	all := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		all[k] = v
	}
	all["stage"] = stage
	all["error"] = err.Error()

	defer func() {
		if r := recover(); r != nil {
			log.Error("notifier panicked", "stage", stage, "panic", fmt.Sprint(r))
		}
	}()
	n.Notify(fmt.Sprintf("mdnice %s failed: %v", stage, err), all)
}
