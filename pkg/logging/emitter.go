package logging

import (
	"encoding/json"
	"time"

	"github.com/fonline/fodev/internal/errx"
)

// EmitterConfig is stamped onto every event.
type EmitterConfig struct {
	RunID  string
	Family string
}

// Emitter stamps static metadata onto events and fans them out to sinks.
//
// A nil *Emitter is valid and discards everything, so components can hold one
// unconditionally.
type Emitter struct {
	config EmitterConfig
	sinks  []Sink
	now    func() time.Time
}

func NewEmitter(cfg EmitterConfig, sinks ...Sink) *Emitter {
	return &Emitter{
		config: cfg,
		sinks:  sinks,
		now:    time.Now,
	}
}

// Emit builds an event and writes it to every sink, stopping at the first
// sink error. data may be nil.
func (e *Emitter) Emit(eventType, summary, component string, tags []string, data any) error {
	if e == nil {
		return nil
	}

	var rawData json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return errx.Wrap(ErrMarshalData, err)
		}
		rawData = b
	}

	event := &Event{
		Timestamp: e.now().UTC(),
		RunID:     e.config.RunID,
		Family:    e.config.Family,
		EventType: eventType,
		Summary:   summary,
		Component: component,
		Tags:      tags,
		Data:      rawData,
	}

	for _, sink := range e.sinks {
		if err := sink.Write(event); err != nil {
			return err
		}
	}
	return nil
}

// Close closes all sinks and returns the first error.
func (e *Emitter) Close() error {
	if e == nil {
		return nil
	}
	var firstErr error
	for _, sink := range e.sinks {
		if err := sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
