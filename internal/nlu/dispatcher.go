package nlu

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"time"

	"voxgate/internal/calendar"
	"voxgate/internal/metrics"
	"voxgate/internal/provider"
	"voxgate/internal/reminder"
)

type WeatherProvider interface {
	Current(ctx context.Context, city string) (provider.Report, error)
}

type JokeProvider interface {
	Random(ctx context.Context) (string, error)
}

type MusicProvider interface {
	Search(ctx context.Context, query string) (provider.Track, error)
}

type CalendarProvider interface {
	CreateEvent(ctx context.Context, ev calendar.Event) (calendar.Created, error)
}

// Deps are the collaborators intent handlers call out to. A nil provider
// disables its intent with an apology reply.
type Deps struct {
	Weather   WeatherProvider
	Jokes     JokeProvider
	Music     MusicProvider
	Calendar  CalendarProvider
	Reminders reminder.Store
	Metrics   *metrics.Metrics
}

type Options struct {
	DefaultCity string
	Location    *time.Location
	// Timeout bounds every provider call.
	Timeout time.Duration
	Now     func() time.Time
}

type handlerFunc func(d *Dispatcher, ctx context.Context, r Result) string

type Dispatcher struct {
	deps Deps
	opts Options
}

func New(deps Deps, opts Options) *Dispatcher {
	if deps.Reminders == nil {
		deps.Reminders = reminder.NewMemoryStore()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Dispatcher{deps: deps, opts: opts}
}

// Analyze matches text against the intent rules without running a handler.
func (d *Dispatcher) Analyze(text string) Result {
	res, _ := analyze(text)
	return res
}

// Handle produces exactly one reply for any input. Handler failures become
// apology replies and are logged, never returned.
func (d *Dispatcher) Handle(ctx context.Context, text string) (reply string) {
	res, handle := analyze(text)

	defer func() {
		if p := recover(); p != nil {
			log.Error("Intent handler panicked", "intent", res.Intent, "panic", p)
			reply = ReplyInternal
		}
	}()

	d.deps.Metrics.Intent(string(res.Intent))
	reply = handle(d, ctx, res)

	if res.Intent == IntentUnknown {
		log.Info("Command not recognized", "query", res.Query)
	} else {
		log.Info("Command recognized", "intent", res.Intent, "query", res.Query)
	}
	return reply
}

func (d *Dispatcher) now() time.Time {
	return d.opts.Now().In(d.opts.Location)
}

func (d *Dispatcher) failed(intent Intent, capability string, err error) string {
	d.deps.Metrics.ProviderFailure(capability)
	log.Error("Provider call failed", "intent", intent, "provider", capability, "err", err)

	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return fmt.Sprintf("Sorry, the request to the %s service timed out.", capability)
	}
	return fmt.Sprintf("Sorry, I couldn't reach the %s service right now.", capability)
}

func (d *Dispatcher) handleGreeting(_ context.Context, _ Result) string {
	return greetingFor(d.now())
}

func (d *Dispatcher) handleFarewell(_ context.Context, _ Result) string {
	return ReplyFarewell
}

func (d *Dispatcher) handleUnknown(_ context.Context, _ Result) string {
	return ReplyFallback
}

func (d *Dispatcher) handleTime(_ context.Context, _ Result) string {
	now := d.now()
	return fmt.Sprintf("The current time is %s (%s).", now.Format("03:04 PM"), d.opts.Location)
}

func (d *Dispatcher) handleDate(_ context.Context, _ Result) string {
	return fmt.Sprintf("Today's date is %s.", d.now().Format("January 02, 2006"))
}

func (d *Dispatcher) handleWeather(ctx context.Context, r Result) string {
	city := r.Entities[entCity]
	if city == "" {
		city = d.opts.DefaultCity
	}
	if city == "" {
		return replyAskCity
	}
	if d.deps.Weather == nil {
		return replyWeatherNoKey
	}

	ctx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	report, err := d.deps.Weather.Current(ctx, city)
	switch {
	case err == nil:
		return formatReport(report, city)
	case errors.Is(err, provider.ErrNotConfigured):
		log.Warn("Weather provider has no API key", "intent", r.Intent, "city", city)
		return replyWeatherNoKey
	case errors.Is(err, provider.ErrCityNotFound):
		log.Warn("Weather city not found", "city", city)
		return fmt.Sprintf("Sorry, I couldn't find the city: %s.", city)
	case errors.Is(err, provider.ErrUnauthorized):
		d.deps.Metrics.ProviderFailure("weather")
		log.Error("Weather provider rejected API key", "err", err)
		return replyWeatherAuth
	default:
		return d.failed(r.Intent, "weather", err)
	}
}

func (d *Dispatcher) handleMusic(ctx context.Context, r Result) string {
	q := r.Entities[entMusic]
	if q == "" {
		return replyAskMusic
	}
	if d.deps.Music == nil {
		return formatTrack(provider.Track{Title: q, URL: provider.SearchURL(q)}, q)
	}

	ctx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	track, err := d.deps.Music.Search(ctx, q)
	if err != nil {
		return d.failed(r.Intent, "YouTube", err)
	}
	return formatTrack(track, q)
}

func (d *Dispatcher) handleReminderCreate(ctx context.Context, r Result) string {
	task := r.Entities[entTask]
	if task == "" {
		return replyAskReminder
	}

	rem, err := d.deps.Reminders.Add(ctx, task, r.Entities[entWhen])
	if errors.Is(err, reminder.ErrEmptyTask) {
		return replyAskReminder
	}
	if err != nil {
		d.deps.Metrics.ProviderFailure("reminders")
		log.Error("Failed to save reminder", "task", task, "err", err)
		return replyReminderSave
	}

	log.Info("Reminder added", "id", rem.ID, "task", rem.Task, "when", rem.When)
	return formatReminderAdded(rem)
}

func (d *Dispatcher) handleReminderList(ctx context.Context, _ Result) string {
	items, err := d.deps.Reminders.List(ctx)
	if err != nil {
		d.deps.Metrics.ProviderFailure("reminders")
		log.Error("Failed to read reminders", "err", err)
		return replyReminderRead
	}
	return formatReminders(items)
}

func (d *Dispatcher) handleCalendar(ctx context.Context, r Result) string {
	if missing := r.Entities[entMissing]; missing != "" {
		return calendarMissing(missing)
	}
	if d.deps.Calendar == nil {
		return replyCalendarOff
	}

	ev := calendar.Event{
		Title:       r.Entities[entTitle],
		Start:       r.Entities[entStart],
		End:         r.Entities[entEnd],
		Description: r.Entities[entDescription],
	}

	ctx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	created, err := d.deps.Calendar.CreateEvent(ctx, ev)
	if err == nil {
		if created.Link == "" {
			return fmt.Sprintf("Event '%s' created successfully!", ev.Title)
		}
		return fmt.Sprintf("Event '%s' created successfully! You can view it here: %s", ev.Title, created.Link)
	}

	var (
		consent *calendar.ConsentRequiredError
		perr    *calendar.ProviderError
	)
	switch {
	case errors.Is(err, calendar.ErrInvalidTime):
		return replyCalendarTime
	case errors.Is(err, calendar.ErrEndBeforeStart):
		return replyCalendarOrder
	case errors.As(err, &consent):
		log.Warn("Calendar consent required", "url", consent.URL)
		return fmt.Sprintf("I need permission to use your Google Calendar. Open this link to grant access, then ask again: %s", consent.URL)
	case errors.Is(err, calendar.ErrCredential):
		d.deps.Metrics.ProviderFailure("calendar")
		log.Error("Calendar credential failure", "err", err)
		return replyCalendarCredential
	case errors.As(err, &perr):
		d.deps.Metrics.ProviderFailure("calendar")
		log.Error("Calendar event creation failed", "title", ev.Title, "err", err)
		return fmt.Sprintf("An error occurred creating the calendar event: %s", perr.Message)
	default:
		return d.failed(r.Intent, "calendar", err)
	}
}

func (d *Dispatcher) handleJoke(ctx context.Context, r Result) string {
	if d.deps.Jokes == nil {
		return "Sorry, the joke service is not available right now."
	}

	ctx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	joke, err := d.deps.Jokes.Random(ctx)
	if err != nil {
		return d.failed(r.Intent, "joke", err)
	}
	return joke
}
