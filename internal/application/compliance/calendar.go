package compliance

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/turtacn/SeaCert-Compliance/internal/domain/certificate"
	"github.com/turtacn/SeaCert-Compliance/internal/domain/equipment"
	"github.com/turtacn/SeaCert-Compliance/internal/domain/scheduling"
	"github.com/turtacn/SeaCert-Compliance/internal/domain/ship"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/SeaCert-Compliance/pkg/errors"
	"github.com/turtacn/SeaCert-Compliance/pkg/types/common"
)

// CalendarService assembles the fleet survey calendar: upcoming surveys
// with their windows plus certificate and equipment expiries, restricted
// to the operational fleet.
type CalendarService struct {
	ships     *ship.Service
	certs     *certificate.Service
	equipment *equipment.Service
	logger    logging.Logger

	warningDays int
	now         func() time.Time
}

// NewCalendarService wires the calendar service.
func NewCalendarService(ships *ship.Service, certs *certificate.Service, equip *equipment.Service, warningDays int, logger logging.Logger) *CalendarService {
	if warningDays <= 0 {
		warningDays = scheduling.DefaultWarningDays
	}
	return &CalendarService{
		ships:       ships,
		certs:       certs,
		equipment:   equip,
		logger:      logger,
		warningDays: warningDays,
		now:         time.Now,
	}
}

// SurveyCalendar returns every calendar event dated inside [from, to],
// sorted by date, then ship name, then title. Events of ships that are
// not operational are excluded.
func (s *CalendarService) SurveyCalendar(ctx context.Context, from, to time.Time) ([]CalendarEvent, error) {
	from = scheduling.NormalizeDate(from)
	to = scheduling.NormalizeDate(to)
	if to.Before(from) {
		return nil, pkgerrors.InvalidParam("calendar range end precedes start")
	}

	fleet, err := s.ships.ListOperational(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[common.ID]string, len(fleet))
	for _, sh := range fleet {
		names[sh.ID] = sh.Name
	}

	today := scheduling.NormalizeDate(s.now())
	var events []CalendarEvent

	surveys, err := s.certs.FindSurveysBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	for _, c := range surveys {
		name, operational := names[c.ShipID]
		if !operational || c.NextSurveyDate == nil {
			continue
		}
		ev := CalendarEvent{
			Kind:       EventSurvey,
			ShipID:     c.ShipID,
			ShipName:   name,
			SubjectID:  c.ID,
			Title:      fmt.Sprintf("%s — %s survey", c.Name, c.NextSurveyType),
			Date:       *c.NextSurveyDate,
			SurveyType: c.NextSurveyType,
		}
		if w, ok := c.Window(); ok {
			ev.Window = &w
			ev.WindowStatus = scheduling.ClassifyWindow(w, today)
		}
		events = append(events, ev)
	}

	expiring, err := s.certs.FindExpiring(ctx, to)
	if err != nil {
		return nil, err
	}
	for _, c := range expiring {
		name, operational := names[c.ShipID]
		if !operational || c.ValidDate == nil || c.ValidDate.Before(from) {
			continue
		}
		events = append(events, CalendarEvent{
			Kind:      EventCertificateExpiry,
			ShipID:    c.ShipID,
			ShipName:  name,
			SubjectID: c.ID,
			Title:     fmt.Sprintf("%s expires", c.Name),
			Date:      *c.ValidDate,
			Status:    c.Status(today, s.warningDays),
		})
	}

	tests, err := s.equipment.FindExpiring(ctx, to)
	if err != nil {
		return nil, err
	}
	for _, r := range tests {
		name, operational := names[r.ShipID]
		if !operational || r.ValidDate == nil || r.ValidDate.Before(from) {
			continue
		}
		events = append(events, CalendarEvent{
			Kind:      EventEquipmentExpiry,
			ShipID:    r.ShipID,
			ShipName:  name,
			SubjectID: r.ID,
			Title:     fmt.Sprintf("%s test due", r.EquipmentName),
			Date:      *r.ValidDate,
			Status:    r.Status(today, s.warningDays),
		})
	}

	sort.Slice(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date) {
			return events[i].Date.Before(events[j].Date)
		}
		if events[i].ShipName != events[j].ShipName {
			return events[i].ShipName < events[j].ShipName
		}
		return events[i].Title < events[j].Title
	})
	return events, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Aggregations
// ─────────────────────────────────────────────────────────────────────────────

// ByMonth groups events by calendar month, keyed "2006-01".
func ByMonth(events []CalendarEvent) map[string][]CalendarEvent {
	out := make(map[string][]CalendarEvent)
	for _, ev := range events {
		key := ev.Date.Format("2006-01")
		out[key] = append(out[key], ev)
	}
	return out
}

// ByShip groups events by ship.
func ByShip(events []CalendarEvent) map[common.ID][]CalendarEvent {
	out := make(map[common.ID][]CalendarEvent)
	for _, ev := range events {
		out[ev.ShipID] = append(out[ev.ShipID], ev)
	}
	return out
}

// ByKind counts events per kind.
func ByKind(events []CalendarEvent) map[EventKind]int {
	out := make(map[EventKind]int)
	for _, ev := range events {
		out[ev.Kind]++
	}
	return out
}

// ByStatus counts events per grading label.
func ByStatus(events []CalendarEvent) map[string]int {
	out := make(map[string]int)
	for _, ev := range events {
		if label := ev.StatusLabel(); label != "" {
			out[label]++
		}
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// iCal export
// ─────────────────────────────────────────────────────────────────────────────

// BuildICal renders events as an iCalendar document. Survey events with
// a window span the window; expiries are all-day events on their date.
func BuildICal(events []CalendarEvent) []byte {
	var buf []byte
	buf = append(buf, "BEGIN:VCALENDAR\r\n"...)
	buf = append(buf, "VERSION:2.0\r\n"...)
	buf = append(buf, "PRODID:-//SeaCert//Fleet Compliance Calendar//EN\r\n"...)
	buf = append(buf, "CALSCALE:GREGORIAN\r\n"...)
	buf = append(buf, "METHOD:PUBLISH\r\n"...)

	for _, ev := range events {
		buf = append(buf, "BEGIN:VEVENT\r\n"...)
		buf = append(buf, fmt.Sprintf("UID:%s-%s@seacert\r\n", ev.SubjectID, ev.Kind)...)
		if ev.Window != nil {
			buf = append(buf, fmt.Sprintf("DTSTART;VALUE=DATE:%s\r\n", ev.Window.WindowOpen.Format("20060102"))...)
			buf = append(buf, fmt.Sprintf("DTEND;VALUE=DATE:%s\r\n", ev.Window.WindowClose.AddDate(0, 0, 1).Format("20060102"))...)
		} else {
			buf = append(buf, fmt.Sprintf("DTSTART;VALUE=DATE:%s\r\n", ev.Date.Format("20060102"))...)
			buf = append(buf, fmt.Sprintf("DTEND;VALUE=DATE:%s\r\n", ev.Date.AddDate(0, 0, 1).Format("20060102"))...)
		}
		buf = append(buf, fmt.Sprintf("SUMMARY:%s\r\n", escapeICalText(ev.ShipName+": "+ev.Title))...)
		if label := ev.StatusLabel(); label != "" {
			buf = append(buf, fmt.Sprintf("DESCRIPTION:Status %s\r\n", escapeICalText(label))...)
		}
		buf = append(buf, fmt.Sprintf("CATEGORIES:%s\r\n", ev.Kind)...)
		buf = append(buf, "END:VEVENT\r\n"...)
	}

	buf = append(buf, "END:VCALENDAR\r\n"...)
	return buf
}

// escapeICalText escapes the characters RFC 5545 reserves in text values.
func escapeICalText(s string) string {
	r := strings.NewReplacer("\\", "\\\\", ";", "\\;", ",", "\\,", "\n", "\\n")
	return r.Replace(s)
}
