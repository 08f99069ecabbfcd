package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/opentracing/opentracing-go"
	log "github.com/sirupsen/logrus"

	models "github.com/huddle-live/huddle-core/db/models"
)

// NewHDMSQLite opens (or creates) a sqlite-backed DataManager at the given
// path. Use ":memory:" for an ephemeral store.
func NewHDMSQLite(path string) (DataManager, error) {
	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %v", err)
	}
	if path == ":memory:" {
		// Each pooled connection gets its own in-memory database, so the
		// schema only exists on the connection Initialize ran against.
		conn.SetMaxOpenConns(1)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to verify sqlite connection: %v", err)
	}

	h := &HDMSQLite{conn: conn}
	if err := h.Initialize(nil); err != nil {
		conn.Close()
		return nil, err
	}
	return h, nil
}

// HDMSQLite is an implementation of DataManager backed by a sqlite file,
// for single-instance deployments that want session state to survive a
// restart of huddled.
type HDMSQLite struct {
	conn *sql.DB
}

var _ DataManager = &HDMSQLite{}

// Column names reuse the attendee entity property names from db/models so
// that the stored schema matches the documented external interface.
var sqliteSchema = fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS Session (
	id TEXT PRIMARY KEY,
	controller TEXT NOT NULL,
	ipOfVM TEXT NOT NULL,
	createdTime TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS %s (
	%s TEXT NOT NULL,
	%s TEXT NOT NULL,
	%s TIMESTAMP NOT NULL,
	PRIMARY KEY (%s, %s)
);`,
	models.AttendeeTable,
	models.AttendeeSessionID, models.AttendeeScreenName, models.AttendeeLastPolledKey,
	models.AttendeeSessionID, models.AttendeeScreenName)

// HOUSEKEEPING

// Preflight verifies the sqlite connection is usable.
func (h *HDMSQLite) Preflight(sc opentracing.SpanContext) error {
	return h.conn.Ping()
}

// Initialize installs the schema if it isn't already in place.
func (h *HDMSQLite) Initialize(sc opentracing.SpanContext) error {
	_, err := h.conn.Exec(sqliteSchema)
	return err
}

// SESSIONS

// CreateSession adds a new Session record
func (h *HDMSQLite) CreateSession(sc opentracing.SpanContext, session *models.Session) error {
	tracer := opentracing.GlobalTracer()
	span := tracer.StartSpan(
		"db_session_create",
		opentracing.ChildOf(sc))
	defer span.Finish()

	_, err := h.conn.Exec(
		`INSERT INTO Session (id, controller, ipOfVM, createdTime) VALUES (?, ?, ?, ?)`,
		session.ID, session.Controller, session.IPOfVM, session.CreatedTime,
	)
	if err != nil {
		return fmt.Errorf("Session %s already exists", session.ID)
	}

	log.Infof("Created session %s", session.ID)
	return nil
}

// ListSessions lists all stored Sessions
func (h *HDMSQLite) ListSessions(sc opentracing.SpanContext) (map[string]models.Session, error) {
	tracer := opentracing.GlobalTracer()
	span := tracer.StartSpan(
		"db_session_list",
		opentracing.ChildOf(sc))
	defer span.Finish()

	rows, err := h.conn.Query(`SELECT id, controller, ipOfVM, createdTime FROM Session`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := map[string]models.Session{}
	for rows.Next() {
		var s models.Session
		if err := rows.Scan(&s.ID, &s.Controller, &s.IPOfVM, &s.CreatedTime); err != nil {
			return nil, err
		}
		sessions[s.ID] = s
	}
	return sessions, rows.Err()
}

// GetSession retrieves a specific Session by ID
func (h *HDMSQLite) GetSession(sc opentracing.SpanContext, id string) (models.Session, error) {
	tracer := opentracing.GlobalTracer()
	span := tracer.StartSpan(
		"db_session_get",
		opentracing.ChildOf(sc))
	defer span.Finish()

	var s models.Session
	row := h.conn.QueryRow(`SELECT id, controller, ipOfVM, createdTime FROM Session WHERE id = ?`, id)
	if err := row.Scan(&s.ID, &s.Controller, &s.IPOfVM, &s.CreatedTime); err != nil {
		return models.Session{}, fmt.Errorf("Unable to find session %s", id)
	}
	return s, nil
}

// UpdateSessionController updates a session's controller property
func (h *HDMSQLite) UpdateSessionController(sc opentracing.SpanContext, id, controller string) error {
	tracer := opentracing.GlobalTracer()
	span := tracer.StartSpan(
		"db_session_update_controller",
		opentracing.ChildOf(sc))
	defer span.Finish()

	res, err := h.conn.Exec(`UPDATE Session SET controller = ? WHERE id = ?`, controller, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Session %s doesn't exist; cannot update", id)
	}
	return nil
}

// DeleteSession deletes a Session and all of its attendee records
func (h *HDMSQLite) DeleteSession(sc opentracing.SpanContext, id string) error {
	tracer := opentracing.GlobalTracer()
	span := tracer.StartSpan(
		"db_session_delete",
		opentracing.ChildOf(sc))
	defer span.Finish()

	if _, err := h.conn.Exec(`DELETE FROM Session WHERE id = ?`, id); err != nil {
		return err
	}
	_, err := h.conn.Exec(
		fmt.Sprintf(`DELETE FROM %s WHERE %s = ?`, models.AttendeeTable, models.AttendeeSessionID), id)
	return err
}

// ATTENDEES

// UpsertAttendee inserts an Attendee record, or refreshes TimeLastPolled if
// the (sessionID, screenName) pair already exists.
func (h *HDMSQLite) UpsertAttendee(sc opentracing.SpanContext, attendee *models.Attendee) error {
	tracer := opentracing.GlobalTracer()
	span := tracer.StartSpan(
		"db_attendee_upsert",
		opentracing.ChildOf(sc))
	defer span.Finish()

	_, err := h.conn.Exec(
		fmt.Sprintf(`INSERT INTO %s (%s, %s, %s) VALUES (?, ?, ?)
			ON CONFLICT (%s, %s) DO UPDATE SET %s = excluded.%s`,
			models.AttendeeTable,
			models.AttendeeSessionID, models.AttendeeScreenName, models.AttendeeLastPolledKey,
			models.AttendeeSessionID, models.AttendeeScreenName,
			models.AttendeeLastPolledKey, models.AttendeeLastPolledKey),
		attendee.SessionID, attendee.ScreenName, attendee.TimeLastPolled,
	)
	return err
}

// ListAttendees lists a session's Attendees in join order (insertion order)
func (h *HDMSQLite) ListAttendees(sc opentracing.SpanContext, sessionID string) ([]models.Attendee, error) {
	tracer := opentracing.GlobalTracer()
	span := tracer.StartSpan(
		"db_attendee_list",
		opentracing.ChildOf(sc))
	defer span.Finish()

	rows, err := h.conn.Query(
		fmt.Sprintf(`SELECT %s, %s, %s FROM %s WHERE %s = ? ORDER BY rowid`,
			models.AttendeeSessionID, models.AttendeeScreenName, models.AttendeeLastPolledKey,
			models.AttendeeTable, models.AttendeeSessionID),
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attendees := []models.Attendee{}
	for rows.Next() {
		var a models.Attendee
		if err := rows.Scan(&a.SessionID, &a.ScreenName, &a.TimeLastPolled); err != nil {
			return nil, err
		}
		attendees = append(attendees, a)
	}
	return attendees, rows.Err()
}

// GetAttendee retrieves a specific Attendee record
func (h *HDMSQLite) GetAttendee(sc opentracing.SpanContext, sessionID, screenName string) (models.Attendee, error) {
	tracer := opentracing.GlobalTracer()
	span := tracer.StartSpan(
		"db_attendee_get",
		opentracing.ChildOf(sc))
	defer span.Finish()

	var a models.Attendee
	row := h.conn.QueryRow(
		fmt.Sprintf(`SELECT %s, %s, %s FROM %s WHERE %s = ? AND %s = ?`,
			models.AttendeeSessionID, models.AttendeeScreenName, models.AttendeeLastPolledKey,
			models.AttendeeTable, models.AttendeeSessionID, models.AttendeeScreenName),
		sessionID, screenName,
	)
	if err := row.Scan(&a.SessionID, &a.ScreenName, &a.TimeLastPolled); err != nil {
		return models.Attendee{}, fmt.Errorf("Unable to find attendee %s in session %s", screenName, sessionID)
	}
	return a, nil
}

// UpdateAttendeeLastPolled stamps an attendee's TimeLastPolled with the
// current time
func (h *HDMSQLite) UpdateAttendeeLastPolled(sc opentracing.SpanContext, sessionID, screenName string) error {
	tracer := opentracing.GlobalTracer()
	span := tracer.StartSpan(
		"db_attendee_update_lastpolled",
		opentracing.ChildOf(sc))
	defer span.Finish()

	res, err := h.conn.Exec(
		fmt.Sprintf(`UPDATE %s SET %s = ? WHERE %s = ? AND %s = ?`,
			models.AttendeeTable, models.AttendeeLastPolledKey,
			models.AttendeeSessionID, models.AttendeeScreenName),
		time.Now(), sessionID, screenName,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Attendee %s doesn't exist in session %s; cannot update", screenName, sessionID)
	}
	return nil
}

// DeleteAttendee deletes an Attendee record
func (h *HDMSQLite) DeleteAttendee(sc opentracing.SpanContext, sessionID, screenName string) error {
	tracer := opentracing.GlobalTracer()
	span := tracer.StartSpan(
		"db_attendee_delete",
		opentracing.ChildOf(sc))
	defer span.Finish()

	_, err := h.conn.Exec(
		fmt.Sprintf(`DELETE FROM %s WHERE %s = ? AND %s = ?`,
			models.AttendeeTable, models.AttendeeSessionID, models.AttendeeScreenName),
		sessionID, screenName,
	)
	return err
}
