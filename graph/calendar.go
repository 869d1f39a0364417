package graph

import (
	"context"
	"strings"
	"time"
)

type CalendarService struct{ c *Client }

func NewCalendarService(c *Client) *CalendarService { return &CalendarService{c: c} }

func (s *CalendarService) List(ctx context.Context, in *ListEventsInput) (*ListEventsOutput, error) {
	if in.DaysAhead <= 0 {
		in.DaysAhead = 7
	}
	query := map[string]string{
		"$select": "id,subject,start,end,location,organizer",
	}
	if len(in.OrderBy) > 0 {
		query["$orderby"] = strings.Join(in.OrderBy, ",")
	} else {
		query["$orderby"] = "start/dateTime ASC"
	}
	if in.Filter != "" {
		query["$filter"] = in.Filter
	} else {
		now := time.Now().UTC()
		until := now.Add(time.Duration(in.DaysAhead) * 24 * time.Hour)
		query["$filter"] = "start/dateTime ge '" + now.Format(time.RFC3339) + "' and start/dateTime le '" + until.Format(time.RFC3339) + "'"
	}
	res := s.c.Call(ctx, &Request{
		Backend:     BackendGraph,
		Path:        "/me/events",
		QueryParams: query,
		FetchAll:    in.FetchAll,
	})
	if res.Failed() {
		return nil, callError("list events", res)
	}
	var payload struct {
		Value []struct {
			ID      string `json:"id"`
			Subject string `json:"subject"`
			Start   struct {
				DateTime string `json:"dateTime"`
			} `json:"start"`
			End struct {
				DateTime string `json:"dateTime"`
			} `json:"end"`
			Location struct {
				DisplayName string `json:"displayName"`
			} `json:"location"`
			Organizer struct {
				EmailAddress struct {
					Address string `json:"address"`
				} `json:"emailAddress"`
			} `json:"organizer"`
		} `json:"value"`
	}
	if err := decodeInto(res.Data, &payload); err != nil {
		return nil, err
	}
	out := &ListEventsOutput{MorePages: HasMorePages(res.Data, BackendGraph)}
	for _, ev := range payload.Value {
		out.Events = append(out.Events, CalendarEvent{
			ID: ev.ID, Subject: ev.Subject,
			StartISO: ev.Start.DateTime, EndISO: ev.End.DateTime,
			Location: ev.Location.DisplayName, Organizer: ev.Organizer.EmailAddress.Address,
		})
	}
	return out, nil
}

func (s *CalendarService) Create(ctx context.Context, in *CreateEventInput) (*CalendarEvent, error) {
	tz := in.TimeZone
	if tz == "" {
		tz = "UTC"
	}
	event := map[string]any{
		"subject": in.Subject,
		"start":   map[string]string{"dateTime": in.StartISO, "timeZone": tz},
		"end":     map[string]string{"dateTime": in.EndISO, "timeZone": tz},
	}
	if in.Location != "" {
		event["location"] = map[string]string{"displayName": in.Location}
	}
	if in.BodyText != "" {
		event["body"] = map[string]string{"contentType": "Text", "content": in.BodyText}
	}
	if len(in.Attendees) > 0 {
		var attendees []map[string]any
		for _, a := range in.Attendees {
			if a == "" {
				continue
			}
			attendees = append(attendees, map[string]any{
				"emailAddress": map[string]string{"address": a},
				"type":         "required",
			})
		}
		event["attendees"] = attendees
	}
	res := s.c.Call(ctx, &Request{
		Backend: BackendGraph,
		Path:    "/me/events",
		Method:  "POST",
		Body:    event,
	})
	if res.Failed() {
		return nil, callError("create event", res)
	}
	var created struct {
		ID      string `json:"id"`
		Subject string `json:"subject"`
		Start   struct {
			DateTime string `json:"dateTime"`
		} `json:"start"`
		End struct {
			DateTime string `json:"dateTime"`
		} `json:"end"`
		Location struct {
			DisplayName string `json:"displayName"`
		} `json:"location"`
	}
	if err := decodeInto(res.Data, &created); err != nil {
		return nil, err
	}
	return &CalendarEvent{
		ID: created.ID, Subject: created.Subject,
		StartISO: created.Start.DateTime, EndISO: created.End.DateTime,
		Location: created.Location.DisplayName,
	}, nil
}
