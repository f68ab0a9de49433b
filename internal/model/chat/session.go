package chat

// Session is one entry of the session index.
type Session struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Timestamp   int64  `json:"timestamp"`
	LastPersona string `json:"last_persona"`
}
