package scheduling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/wolfman30/clinic-booking-agent/pkg/logging"
)

const (
	defaultAPIBase = "https://api.calendly.com"
	defaultTimeout = 15 * time.Second

	// Clinic working hours used to generate candidate slots between
	// Calendly busy windows.
	workdayStartHour = 9
	workdayEndHour   = 17

	// Candidate slots are generated on a fixed grid regardless of
	// offering duration.
	slotStepMinutes = 30
)

// CalendlyClient implements Provider against the Calendly v2 REST API.
// Availability is derived from user busy times: slots are generated over
// clinic working hours and busy windows are subtracted.
type CalendlyClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
	loc        *time.Location
	logger     *logging.Logger

	userMu  sync.Mutex
	userURI string
}

// NewCalendlyClient constructs a Calendly REST client. loc is the clinic's
// timezone used when generating slot times.
func NewCalendlyClient(baseURL, token string, loc *time.Location, logger *logging.Logger) *CalendlyClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultAPIBase
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CalendlyClient{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		loc:        loc,
		logger:     logger,
	}
}

type calendlyUser struct {
	Resource struct {
		URI           string `json:"uri"`
		Name          string `json:"name"`
		Slug          string `json:"slug"`
		SchedulingURL string `json:"scheduling_url"`
	} `json:"resource"`
}

// currentUserURI fetches and caches the authenticated user's URI. One
// client is shared across all sessions, so the cache is mutex guarded;
// the lock is held across the fetch so concurrent first callers produce
// a single /users/me round trip.
func (c *CalendlyClient) currentUserURI(ctx context.Context) (string, error) {
	c.userMu.Lock()
	defer c.userMu.Unlock()
	if c.userURI != "" {
		return c.userURI, nil
	}
	var user calendlyUser
	if err := c.doJSON(ctx, http.MethodGet, "/users/me", nil, &user); err != nil {
		return "", fmt.Errorf("get current user: %w", err)
	}
	c.userURI = user.Resource.URI
	return c.userURI, nil
}

// ListOfferings returns the user's event types as offerings.
func (c *CalendlyClient) ListOfferings(ctx context.Context) ([]Offering, error) {
	userURI, err := c.currentUserURI(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("user", userURI)

	var wrapped struct {
		Collection []struct {
			URI      string `json:"uri"`
			Name     string `json:"name"`
			Duration int    `json:"duration"`
			Slug     string `json:"slug"`
		} `json:"collection"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/event_types?"+q.Encode(), nil, &wrapped); err != nil {
		return nil, fmt.Errorf("get event types: %w", err)
	}

	offerings := make([]Offering, 0, len(wrapped.Collection))
	for _, et := range wrapped.Collection {
		offerings = append(offerings, Offering{
			ID:              et.URI,
			Name:            et.Name,
			DurationMinutes: et.Duration,
			Slug:            et.Slug,
		})
	}
	return offerings, nil
}

// GetAvailability generates candidate slots over working hours for the
// given date and removes any that overlap a Calendly busy window.
func (c *CalendlyClient) GetAvailability(ctx context.Context, date time.Time, durationMinutes int) ([]Slot, error) {
	userURI, err := c.currentUserURI(ctx)
	if err != nil {
		return nil, err
	}

	y, m, d := date.In(c.loc).Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, c.loc)
	dayEnd := dayStart.Add(24*time.Hour - time.Second)

	q := url.Values{}
	q.Set("user", userURI)
	q.Set("start_time", dayStart.UTC().Format(time.RFC3339))
	q.Set("end_time", dayEnd.UTC().Format(time.RFC3339))

	var wrapped struct {
		Collection []struct {
			StartTime time.Time `json:"start_time"`
			EndTime   time.Time `json:"end_time"`
			Type      string    `json:"type"`
		} `json:"collection"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/user_busy_times?"+q.Encode(), nil, &wrapped); err != nil {
		return nil, fmt.Errorf("get busy times: %w", err)
	}

	workStart := time.Date(y, m, d, workdayStartHour, 0, 0, 0, c.loc)
	workEnd := time.Date(y, m, d, workdayEndHour, 0, 0, 0, c.loc)
	dur := time.Duration(durationMinutes) * time.Minute

	var slots []Slot
	for cur := workStart; !cur.Add(dur).After(workEnd); cur = cur.Add(slotStepMinutes * time.Minute) {
		slotEnd := cur.Add(dur)
		busy := false
		for _, b := range wrapped.Collection {
			if cur.Before(b.EndTime) && slotEnd.After(b.StartTime) {
				busy = true
				break
			}
		}
		if !busy {
			slots = append(slots, Slot{Start: cur, End: slotEnd, Status: SlotAvailable})
		}
	}
	return slots, nil
}

// CreateAppointment generates a single-use scheduling link for the patient
// to finish the booking. Calendly does not allow third parties to create
// the event directly, so the result is always link mode.
func (c *CalendlyClient) CreateAppointment(ctx context.Context, req BookingRequest) (*BookingResult, error) {
	userURI, err := c.currentUserURI(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"max_event_count": 1,
		"owner":           userURI,
		"owner_type":      "User",
	}
	var resp struct {
		Resource struct {
			BookingURL string `json:"booking_url"`
		} `json:"resource"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/scheduling_links", body, &resp); err != nil {
		return nil, fmt.Errorf("create scheduling link: %w", err)
	}

	c.logger.Info("calendly scheduling link created",
		"offering_id", req.OfferingID,
		"start", req.Start.Format(time.RFC3339),
	)
	return &BookingResult{
		Mode:       ConfirmByLink,
		BookingURL: resp.Resource.BookingURL,
	}, nil
}

func (c *CalendlyClient) doJSON(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	endpoint := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(respBody)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		c.logger.Warn("calendly API non-2xx response", "status", resp.StatusCode, "path", path, "body", msg)
		return fmt.Errorf("calendly API returned %d: %s", resp.StatusCode, msg)
	}

	if len(respBody) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
