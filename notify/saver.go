package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/manualsvc/bundler/store"
)

func NewSaver(s store.Store, hub *Hub, logger hclog.Logger, customizers ...func(*SaverOptions)) (*Saver, error) {
	if s == nil {
		return nil, errors.New("store is nil")
	}
	if hub == nil {
		return nil, errors.New("hub is nil")
	}

	options := NewSaverOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	return &Saver{
		store:   s,
		hub:     hub,
		logger:  logger.Named("saver"),
		options: options,

		pending: make(map[string]*pendingSave),
		now:     time.Now,
	}, nil
}

func NewSaverOptions() SaverOptions {
	return SaverOptions{
		Debounce: 2 * time.Second,
	}
}

type SaverOptions struct {
	Debounce time.Duration // Quiet period before a diagram change is persisted.
}

func (o SaverOptions) Validate() error {
	if o.Debounce <= 0 {
		return errors.New("debounce must be positive")
	}
	return nil
}

type pendingSave struct {
	editedXml string
	origin    string
	timer     *time.Timer
}

// Saver persists diagram edits after a quiet period, last write wins. Each
// persisted write is announced through the hub.
type Saver struct {
	store   store.Store
	hub     *Hub
	logger  hclog.Logger
	options SaverOptions

	mutex   sync.Mutex
	pending map[string]*pendingSave

	now func() time.Time
}

// Save schedules the edited XML of a service for persistence. A save already
// pending for the service is superseded and its debounce window restarted.
func (s *Saver) Save(serviceKey string, editedXml string, origin string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if p, ok := s.pending[serviceKey]; ok {
		p.editedXml = editedXml
		p.origin = origin
		p.timer.Reset(s.options.Debounce)
		return
	}

	p := &pendingSave{editedXml: editedXml, origin: origin}
	p.timer = time.AfterFunc(s.options.Debounce, func() {
		s.flush(context.Background(), serviceKey)
	})
	s.pending[serviceKey] = p
}

// Flush persists all pending saves immediately, e.g. on shutdown.
func (s *Saver) Flush(ctx context.Context) {
	s.mutex.Lock()
	var serviceKeys []string
	for serviceKey, p := range s.pending {
		p.timer.Stop()
		serviceKeys = append(serviceKeys, serviceKey)
	}
	s.mutex.Unlock()

	for _, serviceKey := range serviceKeys {
		s.flush(ctx, serviceKey)
	}
}

func (s *Saver) flush(ctx context.Context, serviceKey string) {
	s.mutex.Lock()
	p, ok := s.pending[serviceKey]
	if ok {
		delete(s.pending, serviceKey)
	}
	s.mutex.Unlock()

	if !ok {
		return
	}

	if err := s.store.SaveEditedXml(ctx, serviceKey, p.editedXml); err != nil {
		s.logger.Error("failed to save edited XML", "service_key", serviceKey, "error", err)
		return
	}

	s.hub.Publish(Event{
		ServiceKey: serviceKey,
		Origin:     p.origin,
		SavedAt:    s.now(),
	})
}
