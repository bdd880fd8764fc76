package checkpoint

import "github.com/hedeqiang/anchor/event"

// buffer accumulates payloads observed since the last commit, in arrival
// order. It is pure working memory: never persisted, reconstructible by
// redelivery after a reconnect.
type buffer struct {
	items []event.Payload
}

func (b *buffer) append(p event.Payload) {
	b.items = append(b.items, p)
}

func (b *buffer) clear() {
	b.items = b.items[:0]
}

func (b *buffer) len() int {
	return len(b.items)
}
