package nlu

import (
	"regexp"
	"strings"
)

type Intent string

const (
	IntentCalendarCreate Intent = "calendar_create"
	IntentReminderCreate Intent = "reminder_create"
	IntentReminderList   Intent = "reminder_list"
	IntentMusic          Intent = "music"
	IntentWeather        Intent = "weather"
	IntentJoke           Intent = "joke"
	IntentTime           Intent = "time"
	IntentDate           Intent = "date"
	IntentGreeting       Intent = "greeting"
	IntentFarewell       Intent = "farewell"
	IntentUnknown        Intent = "unknown"
)

// Result is the outcome of matching a query against the intent rules.
type Result struct {
	Intent   Intent
	Entities map[string]string
	Query    string
}

type query struct {
	raw  string // whitespace-collapsed, case preserved
	norm string // lower-cased raw
}

var quoteReplacer = strings.NewReplacer("‘", "'", "’", "'", "“", `"`, "”", `"`)

func normalize(text string) query {
	raw := strings.Join(strings.Fields(quoteReplacer.Replace(text)), " ")
	raw = strings.TrimSpace(strings.TrimRight(raw, ".!?"))
	return query{raw: raw, norm: strings.ToLower(raw)}
}

type rule struct {
	intent Intent
	match  func(q query) bool
	// extract pulls the intent's parameters out of the query; nil when the
	// intent takes none.
	extract func(q query) map[string]string
	handle  handlerFunc
}

var (
	jokeRe = regexp.MustCompile(`\bjokes?\b|\bmake me laugh\b`)
	// Reminders are never changed, so these requests fall through to unknown.
	reminderEditRe = regexp.MustCompile(`\b(?:update|edit|change|delete|remove|clear|cancel)\b`)
)

// rules are evaluated top to bottom and the first match wins. Content intents
// come before greeting and farewell so "hey, what's the weather" is weather,
// and joke comes before weather so a joke about the weather is a joke.
var rules = []rule{
	{
		intent: IntentCalendarCreate,
		match: func(q query) bool {
			return strings.Contains(q.norm, "add calendar event") || strings.HasPrefix(q.norm, "schedule event")
		},
		extract: extractCalendarEvent,
		handle:  (*Dispatcher).handleCalendar,
	},
	{
		intent:  IntentReminderCreate,
		match:   func(q query) bool { return strings.Contains(q.norm, "remind me") },
		extract: extractReminder,
		handle:  (*Dispatcher).handleReminderCreate,
	},
	{
		intent: IntentReminderList,
		match: func(q query) bool {
			return containsAny(q.norm, "show reminders", "list reminders", "read reminders", "my reminders") &&
				!reminderEditRe.MatchString(q.norm)
		},
		handle: (*Dispatcher).handleReminderList,
	},
	{
		intent: IntentMusic,
		match: func(q query) bool {
			return hasPhrase(q.norm, "play") || strings.Contains(q.norm, "search youtube for")
		},
		extract: extractMusic,
		handle:  (*Dispatcher).handleMusic,
	},
	{
		intent: IntentJoke,
		match:  func(q query) bool { return jokeRe.MatchString(q.norm) },
		handle: (*Dispatcher).handleJoke,
	},
	{
		intent:  IntentWeather,
		match:   func(q query) bool { return containsAny(q.norm, "weather", "forecast") },
		extract: extractCity,
		handle:  (*Dispatcher).handleWeather,
	},
	{
		intent: IntentTime,
		match: func(q query) bool {
			return q.norm == "time" || containsAny(q.norm, "what time", "current time", "time now", "the time")
		},
		handle: (*Dispatcher).handleTime,
	},
	{
		intent: IntentDate,
		match: func(q query) bool {
			return q.norm == "date" ||
				containsAny(q.norm, "today's date", "date today", "the date", "what day is it", "what's the date")
		},
		handle: (*Dispatcher).handleDate,
	},
	{
		intent: IntentGreeting,
		match: func(q query) bool {
			return hasPhrase(q.norm, "hello", "hi", "hey", "hey assistant", "good morning", "good afternoon", "good evening")
		},
		handle: (*Dispatcher).handleGreeting,
	},
	{
		intent: IntentFarewell,
		match: func(q query) bool {
			return hasPhrase(q.norm, "goodbye", "bye", "exit", "stop listening", "stop", "shut down", "that's all", "see you")
		},
		handle: (*Dispatcher).handleFarewell,
	},
}

func analyze(text string) (Result, handlerFunc) {
	q := normalize(text)
	for _, r := range rules {
		if !r.match(q) {
			continue
		}
		res := Result{Intent: r.intent, Query: q.raw, Entities: map[string]string{}}
		if r.extract != nil {
			res.Entities = r.extract(q)
		}
		return res, r.handle
	}
	return Result{Intent: IntentUnknown, Query: q.raw, Entities: map[string]string{}}, (*Dispatcher).handleUnknown
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// hasPhrase reports whether s is one of phrases or starts with one followed
// by a word boundary.
func hasPhrase(s string, phrases ...string) bool {
	for _, p := range phrases {
		if s == p {
			return true
		}
		if rest, ok := strings.CutPrefix(s, p); ok && rest != "" {
			switch rest[0] {
			case ' ', ',':
				return true
			}
		}
	}
	return false
}
