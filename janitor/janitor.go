// Package janitor reaps attendees that have stopped polling. It is the only
// deletion path for attendee records: the browser client has no "leave"
// action, closing the tab simply stops the polls.
package janitor

import (
	"encoding/json"
	"fmt"
	"time"

	nats "github.com/nats-io/nats.go"
	ot "github.com/opentracing/opentracing-go"
	log "github.com/sirupsen/logrus"

	config "github.com/huddle-live/huddle-core/config"
	"github.com/huddle-live/huddle-core/db"
	services "github.com/huddle-live/huddle-core/services"
)

// HuddleJanitor periodically sweeps session state, removing attendees whose
// TimeLastPolled has aged past the configured TTL. When the reaped attendee
// held control, control is promoted to the longest-standing survivor; a
// session with no attendees left is deleted.
type HuddleJanitor struct {
	Config config.HuddleConfig
	Db     db.DataManager
	NC     *nats.Conn
}

// Start runs the janitor sweep loop. Meant to be executed in a goroutine,
// as it will block indefinitely
func (j *HuddleJanitor) Start() error {
	for {
		span := ot.StartSpan("janitor_sweep")

		cleaned, err := j.Sweep(span.Context())
		if err != nil {
			log.Errorf("Problem sweeping stale attendees: %v", err)
		}
		if len(cleaned) > 0 {
			log.Infof("Janitor reaped %d stale attendees", len(cleaned))
		}
		span.Finish()

		time.Sleep(time.Duration(j.Config.JanitorInterval) * time.Second)
	}
}

// Sweep performs a single pass over all sessions and returns the reaped
// attendees as "sessionID/screenName" strings.
func (j *HuddleJanitor) Sweep(sc ot.SpanContext) ([]string, error) {
	span := ot.StartSpan("janitor_reap", ot.ChildOf(sc))
	defer span.Finish()

	ttl := time.Duration(j.Config.AttendeeTTL) * time.Second

	sessions, err := j.Db.ListSessions(span.Context())
	if err != nil {
		return nil, err
	}

	cleaned := []string{}
	for id := range sessions {
		session := sessions[id]

		attendees, err := j.Db.ListAttendees(span.Context(), session.ID)
		if err != nil {
			return cleaned, err
		}

		survivors := []string{}
		controllerReaped := false
		for _, attendee := range attendees {
			if time.Since(attendee.TimeLastPolled) <= ttl {
				survivors = append(survivors, attendee.ScreenName)
				continue
			}

			if err := j.Db.DeleteAttendee(span.Context(), session.ID, attendee.ScreenName); err != nil {
				return cleaned, err
			}
			cleaned = append(cleaned, fmt.Sprintf("%s/%s", session.ID, attendee.ScreenName))
			if attendee.ScreenName == session.Controller {
				controllerReaped = true
			}

			j.publishEvent(span.Context(), services.SessionEvent{
				Operation:  services.OperationType_GC,
				SessionID:  session.ID,
				ScreenName: attendee.ScreenName,
				Created:    time.Now(),
			})
		}

		if len(survivors) == 0 {
			// Nobody is left watching; the session goes too.
			if err := j.Db.DeleteSession(span.Context(), session.ID); err != nil {
				return cleaned, err
			}
			log.Infof("Deleted empty session %s", session.ID)
			j.publishEvent(span.Context(), services.SessionEvent{
				Operation: services.OperationType_DELETE,
				SessionID: session.ID,
				Created:   time.Now(),
			})
			continue
		}

		if controllerReaped {
			// Attendee lists are kept in join order, so the first survivor
			// is the longest-standing one.
			newController := survivors[0]
			if err := j.Db.UpdateSessionController(span.Context(), session.ID, newController); err != nil {
				return cleaned, err
			}
			log.Infof("Promoted %s to controller of session %s", newController, session.ID)
			j.publishEvent(span.Context(), services.SessionEvent{
				Operation:  services.OperationType_CONTROLLER,
				SessionID:  session.ID,
				Controller: newController,
				Created:    time.Now(),
			})
		}
	}

	return cleaned, nil
}

func (j *HuddleJanitor) publishEvent(sc ot.SpanContext, event services.SessionEvent) {
	if j.NC == nil {
		// Tests construct the janitor without a broker connection
		return
	}

	tracer := ot.GlobalTracer()
	var t services.TraceMsg
	if err := tracer.Inject(sc, ot.Binary, &t); err != nil {
		log.Errorf("%v for Inject.", err)
	}

	eventBytes, _ := json.Marshal(event)
	t.Write(eventBytes)

	if err := j.NC.Publish(services.SessionEventSubject, t.Bytes()); err != nil {
		log.Errorf("Unable to publish session event: %v", err)
	}
}
