package calendar

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// TimeLayout is the only accepted start/end format.
const TimeLayout = "2006-01-02 15:04"

var (
	ErrCredential     = errors.New("calendar credential unavailable")
	ErrInvalidTime    = errors.New("invalid event time")
	ErrEndBeforeStart = errors.New("event ends before it starts")
	ErrUnknownState   = errors.New("unknown or expired oauth state")
)

// ConsentRequiredError means no usable credential exists and the user has to
// grant access in a browser at URL.
type ConsentRequiredError struct {
	URL string
}

func (e *ConsentRequiredError) Error() string {
	return "calendar consent required: " + e.URL
}

// ProviderError carries the message reported by the calendar API.
type ProviderError struct {
	Message string
	Err     error
}

func (e *ProviderError) Error() string { return "calendar api: " + e.Message }
func (e *ProviderError) Unwrap() error { return e.Err }

type Event struct {
	Title       string
	Start       string
	End         string
	Description string
}

type Created struct {
	ID   string
	Link string
}

type Options struct {
	CalendarID string
	Location   *time.Location
	// HTTPClient is the base client for token exchange and API calls.
	HTTPClient *http.Client
	// APIOptions are appended when building the calendar service.
	APIOptions []option.ClientOption
}

type Client struct {
	oauth  *oauth2.Config
	tokens TokenStore
	opts   Options

	mu     sync.Mutex
	states map[string]time.Time
	source *persistingSource
}

const stateTTL = 15 * time.Minute

func New(cfg *oauth2.Config, tokens TokenStore, opts Options) *Client {
	if opts.CalendarID == "" {
		opts.CalendarID = "primary"
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	return &Client{
		oauth:  cfg,
		tokens: tokens,
		opts:   opts,
		states: make(map[string]time.Time),
	}
}

// NewFromSecretsFile builds a client from a Google OAuth client secrets file.
// redirectURL, when set, replaces the one in the file.
func NewFromSecretsFile(path, redirectURL string, tokens TokenStore, opts Options) (*Client, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := google.ConfigFromJSON(data, gcal.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if redirectURL != "" {
		cfg.RedirectURL = redirectURL
	}
	return New(cfg, tokens, opts), nil
}

func (c *Client) ctx(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.opts.HTTPClient)
}

// EnsureCredential returns a token source that refreshes transparently, or a
// *ConsentRequiredError when there is nothing to refresh from. The stored
// credential is left untouched on failure.
func (c *Client) EnsureCredential(ctx context.Context) (oauth2.TokenSource, error) {
	tok, err := c.tokens.Get()
	if errors.Is(err, ErrNoCredential) {
		return nil, c.consent()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredential, err)
	}

	c.mu.Lock()
	src := c.source
	if src == nil {
		// The token source outlives this request, so it must not capture
		// the request context.
		base := c.oauth.TokenSource(c.ctx(context.Background()), tok)
		src = &persistingSource{base: base, store: c.tokens, last: tok.AccessToken}
		c.source = src
	}
	c.mu.Unlock()

	if _, err := src.Token(); err != nil {
		var re *oauth2.RetrieveError
		if (errors.As(err, &re) && re.ErrorCode == "invalid_grant") || tok.RefreshToken == "" {
			c.resetSource()
			return nil, c.consent()
		}
		return nil, fmt.Errorf("%w: %v", ErrCredential, err)
	}
	return src, nil
}

func (c *Client) resetSource() {
	c.mu.Lock()
	c.source = nil
	c.mu.Unlock()
}

func (c *Client) consent() error {
	state := uuid.NewString()
	now := time.Now()

	c.mu.Lock()
	for s, issued := range c.states {
		if now.Sub(issued) > stateTTL {
			delete(c.states, s)
		}
	}
	c.states[state] = now
	c.mu.Unlock()

	url := c.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	return &ConsentRequiredError{URL: url}
}

// Exchange completes the consent flow started by a ConsentRequiredError.
func (c *Client) Exchange(ctx context.Context, state, code string) error {
	c.mu.Lock()
	issued, ok := c.states[state]
	if ok {
		delete(c.states, state)
	}
	c.mu.Unlock()

	if !ok || time.Since(issued) > stateTTL {
		return ErrUnknownState
	}

	tok, err := c.oauth.Exchange(c.ctx(ctx), code)
	if err != nil {
		return fmt.Errorf("%w: exchange: %v", ErrCredential, err)
	}
	if err := c.tokens.Store(tok); err != nil {
		return fmt.Errorf("store token: %w", err)
	}

	c.resetSource()
	log.Info("Calendar credential stored")
	return nil
}

func (c *Client) parseTimes(ev Event) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(TimeLayout, strings.TrimSpace(ev.Start), c.opts.Location)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start %q", ErrInvalidTime, ev.Start)
	}
	end, err := time.ParseInLocation(TimeLayout, strings.TrimSpace(ev.End), c.opts.Location)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end %q", ErrInvalidTime, ev.End)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, ErrEndBeforeStart
	}
	return start, end, nil
}

func (c *Client) CreateEvent(ctx context.Context, ev Event) (Created, error) {
	start, end, err := c.parseTimes(ev)
	if err != nil {
		return Created{}, err
	}

	ts, err := c.EnsureCredential(ctx)
	if err != nil {
		return Created{}, err
	}

	hc := oauth2.NewClient(c.ctx(ctx), ts)
	svc, err := gcal.NewService(ctx, append([]option.ClientOption{option.WithHTTPClient(hc)}, c.opts.APIOptions...)...)
	if err != nil {
		return Created{}, fmt.Errorf("calendar service: %w", err)
	}

	tz := c.opts.Location.String()
	body := &gcal.Event{
		Summary:     ev.Title,
		Description: ev.Description,
		Start:       &gcal.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: tz},
		End:         &gcal.EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: tz},
		Reminders: &gcal.EventReminders{
			UseDefault:      false,
			Overrides:       []*gcal.EventReminder{{Method: "popup", Minutes: 30}},
			ForceSendFields: []string{"UseDefault"},
		},
	}

	log.Info("Creating calendar event", "title", ev.Title, "start", body.Start.DateTime, "end", body.End.DateTime)

	out, err := svc.Events.Insert(c.opts.CalendarID, body).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			msg := gerr.Message
			if msg == "" {
				msg = fmt.Sprintf("status %d", gerr.Code)
			}
			return Created{}, &ProviderError{Message: msg, Err: err}
		}
		return Created{}, fmt.Errorf("insert event: %w", err)
	}

	return Created{ID: out.Id, Link: out.HtmlLink}, nil
}
