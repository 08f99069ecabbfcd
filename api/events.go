package api

import (
	"encoding/json"

	ot "github.com/opentracing/opentracing-go"
	log "github.com/sirupsen/logrus"

	services "github.com/huddle-live/huddle-core/services"
)

// publishEvent sends a session lifecycle event over NATS with the span
// context injected ahead of the payload, so consumers can continue the
// trace. Event delivery is best-effort; a failed publish never fails the
// request that produced it.
func (s *HuddleAPI) publishEvent(sc ot.SpanContext, event services.SessionEvent) {
	if s.NC == nil {
		// Tests construct the API without a broker connection
		return
	}

	tracer := ot.GlobalTracer()
	var t services.TraceMsg
	if err := tracer.Inject(sc, ot.Binary, &t); err != nil {
		log.Errorf("%v for Inject.", err)
	}

	eventBytes, _ := json.Marshal(event)
	t.Write(eventBytes)

	if err := s.NC.Publish(services.SessionEventSubject, t.Bytes()); err != nil {
		log.Errorf("Unable to publish session event: %v", err)
	}
}
