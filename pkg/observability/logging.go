package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/warden/pkg/domain"
)

// LogHooks writes one structured line per session event.
func LogHooks(logger *slog.Logger) domain.Hooks {
	log := func(ctx context.Context, ev *domain.AuthEvent) {
		attrs := []any{"event", string(ev.Type)}
		if ev.Kind != "" {
			attrs = append(attrs, "kind", string(ev.Kind))
		}
		if ev.Identity != nil {
			attrs = append(attrs, "role", ev.Identity.Role, "type", string(ev.Identity.Type))
		}
		if ev.IsError {
			logger.WarnContext(ctx, "session_event", append(attrs, "reason", ev.Reason)...)
			return
		}
		logger.InfoContext(ctx, "session_event", attrs...)
	}
	return domain.Hooks{
		OnLogin:   log,
		OnRefresh: log,
		OnLogout:  log,
		OnExpire:  log,
		OnSync:    log,
	}
}
