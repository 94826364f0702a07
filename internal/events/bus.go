package events

import (
	"log"
	"sync"
)

type Handler func(Event)

// Bus: Süreç içi asenkron event dağıtımı. Publish, sipariş onayını
// bekletmemek için handler'ları çağırmaz; event'ler arka plandaki tek
// worker tarafından sırayla işlenir. Handler hataları publisher'a dönmez.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	queue    chan Event
	wg       sync.WaitGroup
	closed   bool
}

func NewBus(queueSize int) *Bus {
	if queueSize <= 0 {
		queueSize = 256
	}
	b := &Bus{
		handlers: make(map[string][]Handler),
		queue:    make(chan Event, queueSize),
	}
	b.wg.Add(1)
	go b.run()
	return b
}

// Subscribe: Abonelikler başlangıçta (main'de) kaydedilir; bus kimin
// dinlediğini bilmez, sadece dağıtır.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// Publish: Event'i kuyruğa bırakır. Kuyruk doluysa bloklar; kapalı bus'a
// publish sessizce düşer (shutdown sırasındaki geç event'ler).
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		log.Printf("[WARN] Bus kapalı, event düştü: %s", e.Name())
		return
	}

	// Gönderim RLock altında: Close write lock beklediği için kapalı
	// kanala gönderim olamaz.
	b.queue <- e
}

// Close: Yeni publish'leri keser, kuyruktaki event'ler işlenene kadar bekler.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	close(b.queue)
	b.wg.Wait()
}

func (b *Bus) run() {
	defer b.wg.Done()
	for e := range b.queue {
		b.mu.RLock()
		hs := b.handlers[e.Name()]
		b.mu.RUnlock()

		for _, h := range hs {
			b.dispatch(e, h)
		}
	}
}

func (b *Bus) dispatch(e Event, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERROR] Event handler panic (%s): %v", e.Name(), r)
		}
	}()
	h(e)
}
