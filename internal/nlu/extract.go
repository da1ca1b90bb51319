package nlu

import (
	"regexp"
	"strings"
)

const (
	entCity        = "city"
	entMusic       = "query"
	entTask        = "task"
	entWhen        = "when"
	entTitle       = "title"
	entStart       = "start"
	entEnd         = "end"
	entDescription = "description"
	// entMissing names the first calendar field that could not be parsed.
	entMissing = "missing"
)

// quoted captures a field in matching single or double quotes, so the other
// kind may appear inside it.
const quoted = `(?:'([^']*)'|"([^"]*)")`

var (
	cityRe     = regexp.MustCompile(`(?i)\b(?:weather|forecast)\s+(?:like\s+)?(?:in|for|at)\s+(.+)$`)
	cityTailRe = regexp.MustCompile(`(?i)\s+(?:today|tomorrow|right now|now|please)$`)

	musicRe     = regexp.MustCompile(`(?i)(?:search youtube for|^play music|^play song|^play video|^play)\b\s*(.*)$`)
	musicTailRe = regexp.MustCompile(`(?i)\s+(?:on|from) youtube$`)

	reminderRe = regexp.MustCompile(`(?i)\bremind me(?:\s+to)?\b\s*(.*)$`)

	weekdays = `monday|tuesday|wednesday|thursday|friday|saturday|sunday`
	months   = `january|february|march|april|may|june|july|august|september|october|november|december`
	whenPat  = `(?:at|by)\s+(?:\d|noon|midnight|` + weekdays + `|tomorrow|tonight)\S*.*` +
		`|on\s+(?:` + weekdays + `|` + months + `|the\s+\d|\d)\S*.*` +
		`|in\s+(?:\d+|a|an|one|two|three|four|five|six|seven|eight|nine|ten|half)\s+.+` +
		`|(?:tomorrow|tonight|today)\b.*` +
		`|next\s+\S.*` +
		`|this\s+(?:morning|afternoon|evening|weekend)\b.*` +
		`|every\s+\S.*`
	reminderSplitRe = regexp.MustCompile(`(?i)^(.+?)\s+(` + whenPat + `)$`)
	reminderOnlyRe  = regexp.MustCompile(`(?i)^(?:` + whenPat + `)$`)
	// reminderLeadRe matches "<when> to <task>"; U keeps the due time as short
	// as possible.
	reminderLeadRe = regexp.MustCompile(`(?iU)^(` + whenPat + `)\s+to\s+(.+)$`)

	calendarHeadRe  = regexp.MustCompile(`(?i)(?:add calendar event|schedule event)\s*`)
	calendarTitleRe = regexp.MustCompile(`^` + quoted)
	calendarFromRe  = regexp.MustCompile(`(?i)^\s*from\s+` + quoted)
	calendarToRe    = regexp.MustCompile(`(?i)^\s*to\s+` + quoted)
	calendarDescRe  = regexp.MustCompile(`(?i)^\s*(?:with\s+)?(?:description|notes?|about)\s+` + quoted)
)

// CalendarUsage is the template calendar requests have to follow.
const CalendarUsage = "add calendar event 'Title' from 'YYYY-MM-DD HH:MM' to 'YYYY-MM-DD HH:MM' description 'Details'"

func extractCity(q query) map[string]string {
	m := cityRe.FindStringSubmatch(q.raw)
	if m == nil {
		return map[string]string{}
	}
	city := m[1]
	for {
		trimmed := cityTailRe.ReplaceAllString(city, "")
		if trimmed == city {
			break
		}
		city = trimmed
	}
	return map[string]string{entCity: strings.Trim(strings.TrimSpace(city), ",")}
}

func extractMusic(q query) map[string]string {
	m := musicRe.FindStringSubmatch(q.raw)
	if m == nil {
		return map[string]string{}
	}
	return map[string]string{entMusic: strings.TrimSpace(musicTailRe.ReplaceAllString(m[1], ""))}
}

// extractReminder splits "remind me to <task> <when>" at the first time
// marker, or "remind me <when> to <task>" at the first "to" after it. The due
// time is free text and is not validated.
func extractReminder(q query) map[string]string {
	m := reminderRe.FindStringSubmatch(q.raw)
	if m == nil {
		return map[string]string{}
	}
	rest := strings.TrimSpace(m[1])

	if s := reminderLeadRe.FindStringSubmatch(rest); s != nil {
		return map[string]string{entTask: strings.TrimSpace(s[2]), entWhen: strings.TrimSpace(s[1])}
	}
	if reminderOnlyRe.MatchString(rest) {
		return map[string]string{entTask: "", entWhen: rest}
	}
	if s := reminderSplitRe.FindStringSubmatch(rest); s != nil {
		return map[string]string{entTask: strings.TrimSpace(s[1]), entWhen: strings.TrimSpace(s[2])}
	}
	return map[string]string{entTask: rest}
}

// extractCalendarEvent reads the quoted fields of CalendarUsage from the
// case-preserved query.
func extractCalendarEvent(q query) map[string]string {
	out := map[string]string{}

	loc := calendarHeadRe.FindStringIndex(q.raw)
	if loc == nil {
		out[entMissing] = entTitle
		return out
	}
	rest := q.raw[loc[1]:]

	steps := []struct {
		re    *regexp.Regexp
		key   string
		label string
	}{
		{calendarTitleRe, entTitle, "title"},
		{calendarFromRe, entStart, "start time"},
		{calendarToRe, entEnd, "end time"},
	}
	for _, st := range steps {
		m := st.re.FindStringSubmatchIndex(rest)
		value := ""
		if m != nil {
			value = strings.TrimSpace(firstGroup(rest, m))
		}
		if value == "" {
			out[entMissing] = st.label
			return out
		}
		out[st.key] = value
		rest = rest[m[1]:]
	}

	if m := calendarDescRe.FindStringSubmatchIndex(rest); m != nil {
		out[entDescription] = strings.TrimSpace(firstGroup(rest, m))
	}
	return out
}

// firstGroup returns the first participating capture group of a submatch
// index slice.
func firstGroup(s string, m []int) string {
	for i := 2; i+1 < len(m); i += 2 {
		if m[i] >= 0 {
			return s[m[i]:m[i+1]]
		}
	}
	return ""
}
