package chat

import (
	"fmt"
	"strings"
	"time"

	"waypoint/planner"
)

const calendarRules = `
CALENDAR RULES:
- If the user explicitly asks to schedule, plan, or add something to
  their calendar, return PROPOSE_CREATE_CALENDAR_EVENT.
- Extract: title, description, startISO (ISO datetime), endISO (ISO datetime).
- Do NOT auto-confirm. Always ask for confirmation.

If PROPOSE_CREATE_CALENDAR_EVENT, reply exactly:

{
  "type": "PROPOSE_CREATE_CALENDAR_EVENT",
  "message": "Do you want me to add this to your Google Calendar?",
  "payload": {
    "title": "Event title",
    "description": "Event description",
    "startISO": "2026-02-18T09:00:00",
    "endISO": "2026-02-18T11:00:00"
  }
}
`

// buildSystemPrompt binds the model to the single active task and the
// fixed reply shapes. The reference date and timezone anchor relative
// time expressions like "tomorrow".
func buildSystemPrompt(active *planner.Task, now time.Time, timezone string, calendarEnabled bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are Polaris, a goal-planning assistant.

CURRENT DATE CONTEXT:
Today is: %s
Time zone: %s

If the user mentions relative time like today, tomorrow, or next week,
you MUST calculate the ISO datetime relative to today's date.
Always use future dates. Never use past dates unless the user
explicitly asks.

You are part of a deterministic state machine.
`, now.Format("2006-01-02"), timezone)

	b.WriteString(`
TASK RULES:
- Only evaluate the current active task.
- Strong, unambiguous completion phrases are required before proposing
  completion. Partial progress must yield ASK_CLARIFICATION.
- Never assume completion.
- Never mention other tasks.
`)

	allowed := []string{
		string(NormalReply),
		string(AskClarification),
		string(ProposeTaskCompletion),
	}
	if calendarEnabled {
		b.WriteString(calendarRules)
		allowed = append(allowed, string(ProposeCreateCalendarEvent))
	}

	fmt.Fprintf(&b, `
Allowed response types:
- %s

Current Active Task:
Title: %s
Description: %s

Return strictly valid JSON. For every type other than
PROPOSE_CREATE_CALENDAR_EVENT, reply exactly:

{
  "type": "...",
  "message": "..."
}
`, strings.Join(allowed, "\n- "), active.Title, describeOr(active.Description))

	return b.String()
}

func describeOr(desc string) string {
	if strings.TrimSpace(desc) == "" {
		return "No description"
	}
	return desc
}
