package model

// Post represents a single message, immutable once created.
//
// The `json:"..."` tags give the wire names used by the HTTP layer; note the
// snake_case user_id — that is the public field name, not Go convention
// leaking out.
//
// WHY Timestamp string AND NOT time.Time?
// The timestamp is recorded as a fixed-width ISO-8601 UTC string
// (2006-01-02T15:04:05.000000Z) and the date-range query compares these
// strings lexicographically. Fixed-width UTC strings sort exactly like the
// instants they name, so the range query needs no time parsing at all — and
// clients get back precisely the string that was recorded.
//
// WHY File string (not *string)?
// The file payload is an opaque blob passed through verbatim; we never
// decode or validate it. The empty string is "no file", and omitempty keeps
// it out of the JSON for posts that have none.
type Post struct {
	ID        int    `json:"id"`
	Msg       string `json:"msg"`
	Key       string `json:"key,omitempty"` // Secret delete credential; cleared in views
	Timestamp string `json:"timestamp"`
	File      string `json:"file,omitempty"`
	UserID    int    `json:"user_id,omitempty"`  // Attribution: set only with a valid user key
	Username  string `json:"username,omitempty"` // Snapshot of the author's username at creation
}

// View returns a copy of the post with the delete key cleared. With the
// key,omitempty tag the field disappears from the JSON entirely, so a view
// can never leak the credential.
func (p *Post) View() Post {
	v := *p
	v.Key = ""
	return v
}
