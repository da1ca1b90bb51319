package nlu

import (
	"fmt"
	"strings"
	"time"

	"voxgate/internal/provider"
	"voxgate/internal/reminder"
)

// Greetings are chosen by hour of day in the configured timezone.
var Greetings = []string{
	"Good morning! How can I assist you?",
	"Good afternoon! How can I assist you?",
	"Good evening! How can I assist you?",
	"Hello there! How can I assist you?",
}

const (
	ReplyFallback = "Sorry, I didn't understand that. Could you try rephrasing or asking differently?"
	ReplyFarewell = "Okay, goodbye!"
	ReplyInternal = "Sorry, something went wrong while handling that. Please try again."

	replyAskCity      = "Which city's weather would you like? Please say 'weather in [City Name]'."
	replyAskMusic     = "What music, song, or video would you like me to search for on YouTube?"
	replyAskReminder  = "What should I remind you about? Please say 'remind me to [your task]'."
	replyNoReminders  = "You have no reminders set right now."
	replyReminderRead = "Sorry, I couldn't read your reminders right now."
	replyReminderSave = "Sorry, I couldn't save that reminder."

	replyWeatherNoKey = "Weather API key is not configured. Cannot fetch weather."
	replyWeatherAuth  = "Authentication failed for weather service. Check API key."

	replyCalendarOff        = "Google Calendar is not configured. Cannot create events."
	replyCalendarCredential = "Cannot access Google Calendar right now. Please check setup and authentication."
	replyCalendarTime       = "Sorry, I couldn't understand the date or time. Please use the format 'YYYY-MM-DD HH:MM'."
	replyCalendarOrder      = "The event must end after it starts."
)

func greetingFor(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return Greetings[0]
	case h >= 12 && h < 17:
		return Greetings[1]
	case h >= 17 && h < 22:
		return Greetings[2]
	default:
		return Greetings[3]
	}
}

func formatReport(r provider.Report, asked string) string {
	city := r.City
	if city == "" {
		city = asked
	}
	cond := r.Description
	if cond == "" {
		cond = r.Condition
	}
	if cond == "" {
		cond = "unknown conditions"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The weather in %s is currently %s. The temperature is %.1f degrees Celsius", city, cond, r.Temp)
	if r.FeelsLike != nil {
		fmt.Fprintf(&b, ", feeling like %.1f degrees.", *r.FeelsLike)
	} else {
		b.WriteString(".")
	}
	if r.Humidity != nil {
		fmt.Fprintf(&b, " Humidity is at %d percent.", *r.Humidity)
	}
	if r.WindSpeed != nil {
		fmt.Fprintf(&b, " Wind speed is %.1f meters per second.", *r.WindSpeed)
	}
	return b.String()
}

func formatTrack(t provider.Track, asked string) string {
	if t.Direct {
		return fmt.Sprintf("Okay, I found '%s' on YouTube: %s", t.Title, t.URL)
	}
	return fmt.Sprintf("Okay, I looked up '%s' on YouTube. You can try this link: %s", asked, t.URL)
}

func formatReminderAdded(r reminder.Reminder) string {
	if r.When == "" {
		return fmt.Sprintf("Okay, I will remind you to '%s'.", r.Task)
	}
	return fmt.Sprintf("Okay, I will remind you to '%s' %s.", r.Task, r.When)
}

func formatReminders(items []reminder.Reminder) string {
	if len(items) == 0 {
		return replyNoReminders
	}

	var b strings.Builder
	plural := "s"
	if len(items) == 1 {
		plural = ""
	}
	fmt.Fprintf(&b, "Okay, you have %d reminder%s:", len(items), plural)
	for i, r := range items {
		fmt.Fprintf(&b, " Number %d. %s", i+1, r.Task)
		if r.When != "" {
			fmt.Fprintf(&b, " (%s)", r.When)
		}
		b.WriteString(".")
	}
	return b.String()
}

func calendarMissing(field string) string {
	return fmt.Sprintf("Sorry, I couldn't find the %s of the event. To add an event, please use the format: %s", field, CalendarUsage)
}
