package scheduling

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wolfman30/clinic-booking-agent/pkg/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *CalendlyClient {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewCalendlyClient(ts.URL, "test-token", time.UTC, logging.New("error"))
}

func serveUser(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"resource":{"uri":"urn:calendly:user:U1","name":"Dr. Mock","slug":"dr-mock"}}`))
}

func TestCalendlyClient_ListOfferings(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/me":
			serveUser(w)
		case "/event_types":
			if r.Header.Get("Authorization") != "Bearer test-token" {
				t.Fatalf("missing bearer token, got %q", r.Header.Get("Authorization"))
			}
			if r.URL.Query().Get("user") != "urn:calendly:user:U1" {
				t.Fatalf("user = %s", r.URL.Query().Get("user"))
			}
			_, _ = w.Write([]byte(`{"collection":[
				{"uri":"urn:calendly:event_type:1","name":"General Consultation","duration":30,"slug":"general-30"},
				{"uri":"urn:calendly:event_type:2","name":"Follow-up","duration":15,"slug":"followup-15"}
			]}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	offerings, err := client.ListOfferings(context.Background())
	if err != nil {
		t.Fatalf("ListOfferings() error = %v", err)
	}
	if len(offerings) != 2 {
		t.Fatalf("len(offerings) = %d, want 2", len(offerings))
	}
	if offerings[1].Slug != "followup-15" || offerings[1].DurationMinutes != 15 {
		t.Fatalf("offering = %+v", offerings[1])
	}
}

func TestCalendlyClient_GetAvailability_SubtractsBusyWindows(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/me":
			serveUser(w)
		case "/user_busy_times":
			// Busy 10:00-11:00; everything else free.
			_, _ = w.Write([]byte(`{"collection":[
				{"start_time":"2026-09-07T10:00:00Z","end_time":"2026-09-07T11:00:00Z","type":"calendly"}
			]}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	date := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	slots, err := client.GetAvailability(context.Background(), date, 30)
	if err != nil {
		t.Fatalf("GetAvailability() error = %v", err)
	}
	if len(slots) == 0 {
		t.Fatal("expected slots")
	}
	for _, s := range slots {
		if s.Start.Before(time.Date(2026, 9, 7, 11, 0, 0, 0, time.UTC)) &&
			s.End.After(time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)) {
			t.Fatalf("slot %s-%s overlaps busy window", s.Start, s.End)
		}
	}
	// First free slot of the day starts at 09:00 and runs 30 minutes.
	if got := slots[0].Start.Hour(); got != 9 {
		t.Fatalf("first slot hour = %d, want 9", got)
	}
	if slots[0].End.Sub(slots[0].Start) != 30*time.Minute {
		t.Fatalf("slot duration = %s", slots[0].End.Sub(slots[0].Start))
	}
}

func TestCalendlyClient_GetAvailability_SlotsFitWorkday(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/me":
			serveUser(w)
		case "/user_busy_times":
			_, _ = w.Write([]byte(`{"collection":[]}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	date := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	slots, err := client.GetAvailability(context.Background(), date, 60)
	if err != nil {
		t.Fatalf("GetAvailability() error = %v", err)
	}
	last := slots[len(slots)-1]
	if last.End.Hour() > 17 || (last.End.Hour() == 17 && last.End.Minute() > 0) {
		t.Fatalf("last slot ends after workday: %s", last.End)
	}
}

func TestCalendlyClient_CreateAppointment_LinkMode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/me":
			serveUser(w)
		case "/scheduling_links":
			if r.Method != http.MethodPost {
				t.Fatalf("method = %s, want POST", r.Method)
			}
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["owner"] != "urn:calendly:user:U1" || body["owner_type"] != "User" {
				t.Fatalf("body = %v", body)
			}
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"resource":{"booking_url":"https://calendly.com/d/abc-123"}}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	result, err := client.CreateAppointment(context.Background(), BookingRequest{
		OfferingID: "urn:calendly:event_type:1",
		Start:      time.Now().UTC(),
		Name:       "Jane Doe",
		Email:      "jane@example.com",
	})
	if err != nil {
		t.Fatalf("CreateAppointment() error = %v", err)
	}
	if result.Mode != ConfirmByLink {
		t.Fatalf("mode = %s, want link", result.Mode)
	}
	if result.BookingURL != "https://calendly.com/d/abc-123" {
		t.Fatalf("booking url = %s", result.BookingURL)
	}
}

func TestCalendlyClient_HTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "token expired", http.StatusUnauthorized)
	})

	_, err := client.ListOfferings(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestCalendlyClient_ConcurrentCallsShareUserLookup(t *testing.T) {
	var userCalls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/me":
			atomic.AddInt32(&userCalls, 1)
			serveUser(w)
		case "/event_types":
			_, _ = w.Write([]byte(`{"collection":[]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := client.ListOfferings(context.Background()); err != nil {
				t.Errorf("ListOfferings() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if n := atomic.LoadInt32(&userCalls); n != 1 {
		t.Fatalf("users/me fetched %d times, want 1", n)
	}
}
