package events

// SubscribeToChannel subscribes to events of type T and forwards them to
// the provided channel. Events are dropped when the channel is full so a
// slow SSE consumer cannot block the dispatcher.
// Returns an unsubscribe function.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	return bus.Subscribe(func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}
