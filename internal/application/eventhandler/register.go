package eventhandler

import (
	"fmt"

	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
)

// Handler - обработчик, знающий свои типы событий.
type Handler interface {
	EventTypes() []shared.EventType
	Handle(event shared.Event) error
}

// Register подписывает обработчики на их типы событий.
func Register(sub shared.EventSubscriber, handlers ...Handler) error {
	for _, h := range handlers {
		for _, t := range h.EventTypes() {
			if err := sub.Subscribe(t, h.Handle); err != nil {
				return fmt.Errorf("subscribe %s: %w", t, err)
			}
		}
	}
	return nil
}
