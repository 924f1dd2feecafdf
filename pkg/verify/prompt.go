package verify

import (
	"fmt"
	"time"
)

const promptTemplate = `You extract timezone conversion requests from short user queries.

Today is %s (%s).

Query: %q

Reply with only a JSON object, no prose:
{
  "isValid": true or false,
  "fromZone": "IANA zone the time is given in, e.g. America/New_York",
  "toZone": "IANA zone to convert to, or empty string",
  "time": "the time as H:MM am/pm or 24-hour H:MM, or empty string",
  "date": "YYYY-MM-DD if a date is mentioned, or empty string",
  "error": "why the query can't be answered, if isValid is false",
  "suggestions": ["short hints for fixing an invalid query"]
}

Map abbreviations (EST, PST, IST, CET) and city or country names to IANA zones.
A query is valid when it names at least one place and a time.`

func buildPrompt(text string, now time.Time) string {
	return fmt.Sprintf(promptTemplate, now.Format(time.DateOnly), now.Weekday(), text)
}
