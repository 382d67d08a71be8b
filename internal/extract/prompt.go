// internal/extract/prompt.go
package extract

import (
	"fmt"
	"time"
)

// promptTemplate is the extraction contract sent to the inference backend.
// It anchors relative dates to the reference time, demands bare JSON, and
// defines the no-event case explicitly so chatter and past-tense recaps do
// not turn into calendar entries.
const promptTemplate = `You are an expert event extraction assistant. Analyze the following group chat message.
Respond ONLY with a JSON object. No commentary, no markdown.

Current date and time: %s (%s, timezone %s).

If the message announces a clear, schedulable upcoming event, set "is_event" to true.
Resolve relative dates (e.g. "next Friday") against the current date above and output a literal "YYYY-MM-DD" date.
If the time is missing, omit "time".
If the message is general chatter, a question, or describes something that already happened, set "is_event" to false and leave every other field out.

Message: %q

JSON schema:
{
  "is_event": boolean,
  "title": string,
  "date": "YYYY-MM-DD",
  "time": "HH:MM",
  "location": string,
  "description": string
}`

// buildPrompt renders the extraction prompt for one message anchored at ref.
func buildPrompt(text string, ref time.Time) string {
	return fmt.Sprintf(promptTemplate,
		ref.Format("2006-01-02 15:04"),
		ref.Weekday(),
		ref.Location(),
		text,
	)
}
