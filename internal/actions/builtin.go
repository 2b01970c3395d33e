package actions

import "github.com/solohub/braind/internal/store"

// RegisterBuiltins registers all built-in handlers in the given registry.
func RegisterBuiltins(reg *Registry, s store.Store) error {
	all := []Handler{
		NewCreateTaskHandler(s),
		NewSendNotificationHandler(s),
		NewAddNoteHandler(s),
		NewUpdateKnowledgeHandler(),
	}

	for _, h := range all {
		if err := reg.Register(h); err != nil {
			return err
		}
	}
	return nil
}
