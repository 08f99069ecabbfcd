package stats

import (
	"encoding/json"
	"time"

	influx "github.com/influxdata/influxdb/client/v2"
	nats "github.com/nats-io/nats.go"
	"github.com/opentracing/opentracing-go"
	log "github.com/sirupsen/logrus"

	"github.com/huddle-live/huddle-core/config"
	"github.com/huddle-live/huddle-core/db"
	"github.com/huddle-live/huddle-core/services"
)

const metricsDatabase = "huddle_metrics"

// HuddleStats records session lifecycle events, and periodically exports
// usage data to a TSDB
type HuddleStats struct {
	NC     *nats.Conn
	Config config.HuddleConfig
	Db     db.DataManager
}

// Start starts the HuddleStats service
func (s *HuddleStats) Start() error {

	tracer := opentracing.GlobalTracer()
	span := tracer.StartSpan("stats_root")
	defer span.Finish()

	// Begin periodically exporting metrics to TSDB
	go s.startTSDBExport(span.Context())

	s.NC.Subscribe(services.SessionEventSubject, func(msg *nats.Msg) {
		t := services.NewTraceMsg(msg)
		tracer := opentracing.GlobalTracer()
		sc, err := tracer.Extract(opentracing.Binary, t)
		if err != nil {
			log.Printf("Extract error: %v", err)
		}

		span := tracer.StartSpan(
			"stats_event_incoming",
			opentracing.ChildOf(sc))
		defer span.Finish()

		rem := t.Bytes()
		span.LogKV("payload", services.SafePayload(string(rem)))

		var event services.SessionEvent
		_ = json.Unmarshal(rem, &event)
		s.recordSessionEvent(span.Context(), event)
	})

	// Wait forever
	ch := make(chan struct{})
	<-ch

	return nil
}

// recordSessionEvent writes one point per session lifecycle event, tagged
// so that joins, controller handoffs and reaps can be charted separately.
func (s *HuddleStats) recordSessionEvent(sc opentracing.SpanContext, event services.SessionEvent) error {

	tracer := opentracing.GlobalTracer()
	span := tracer.StartSpan(
		"stats_record_event",
		opentracing.ChildOf(sc))
	defer span.Finish()

	c, err := s.influxClient()
	if err != nil {
		return err
	}
	defer c.Close()

	bp, err := influx.NewBatchPoints(influx.BatchPointsConfig{
		Database:  metricsDatabase,
		Precision: "s",
	})
	if err != nil {
		log.Error("Unable to create metrics batch point: ", err)
		return err
	}

	tags := map[string]string{
		"sessionId":  event.SessionID,
		"operation":  operationName(event.Operation),
		"huddleTier": s.Config.Tier,
		"huddleId":   s.Config.InstanceID,
	}

	fields := map[string]interface{}{
		"sessionId":  event.SessionID,
		"screenName": event.ScreenName,
		"controller": event.Controller,
	}

	pt, err := influx.NewPoint("sessionEvents", tags, fields, time.Now())
	if err != nil {
		log.Error("Error creating InfluxDB Point: ", err)
		return err
	}
	bp.AddPoint(pt)

	err = c.Write(bp)
	if err != nil {
		log.Warn("Unable to push session event to Influx: ", err)
		return err
	}

	return nil
}

// startTSDBExport periodically writes active session and attendee counts.
func (s *HuddleStats) startTSDBExport(sc opentracing.SpanContext) error {

	c, err := s.influxClient()
	if err != nil {
		return err
	}
	defer c.Close()

	for {
		time.Sleep(1 * time.Minute)

		log.Debug("Recording periodic influxdb metrics")

		span := opentracing.GlobalTracer().StartSpan(
			"stats_tsdb_export",
			opentracing.ChildOf(sc))

		bp, err := influx.NewBatchPoints(influx.BatchPointsConfig{
			Database:  metricsDatabase,
			Precision: "s",
		})
		if err != nil {
			log.Error("Unable to create metrics batch point: ", err)
			span.Finish()
			continue
		}

		sessions, err := s.Db.ListSessions(span.Context())
		if err != nil {
			log.Error("Unable to get sessions from DB for influxdb")
			span.Finish()
			continue
		}

		attendeeCount := 0
		for id := range sessions {
			attendees, err := s.Db.ListAttendees(span.Context(), id)
			if err != nil {
				continue
			}
			attendeeCount += len(attendees)
		}

		tags := map[string]string{
			"huddleTier": s.Config.Tier,
			"huddleId":   s.Config.InstanceID,
		}
		fields := map[string]interface{}{
			"sessionCount":  len(sessions),
			"attendeeCount": attendeeCount,
		}

		pt, err := influx.NewPoint("activeSessions", tags, fields, time.Now())
		if err != nil {
			log.Error("Error creating InfluxDB Point: ", err)
			span.Finish()
			continue
		}
		bp.AddPoint(pt)

		if err := c.Write(bp); err != nil {
			log.Warn("Unable to push periodic metrics to Influx: ", err)
		}
		span.Finish()
	}
}

func (s *HuddleStats) influxClient() (influx.Client, error) {
	c, err := influx.NewHTTPClient(influx.HTTPConfig{
		Addr:     s.Config.Stats.URL,
		Username: s.Config.Stats.Username,
		Password: s.Config.Stats.Password,

		// Some upstream influx instances sit behind proxies with
		// certificates we can't always validate.
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Error("Error creating InfluxDB Client: ", err.Error())
		return nil, err
	}

	q := influx.NewQuery("CREATE DATABASE "+metricsDatabase, "", "")
	if response, err := c.Query(q); err == nil && response.Error() == nil {
		//
	}

	return c, nil
}

func operationName(op services.OperationType) string {
	switch op {
	case services.OperationType_CREATE:
		return "create"
	case services.OperationType_JOIN:
		return "join"
	case services.OperationType_CONTROLLER:
		return "controller"
	case services.OperationType_GC:
		return "gc"
	case services.OperationType_DELETE:
		return "delete"
	}
	return "unknown"
}
