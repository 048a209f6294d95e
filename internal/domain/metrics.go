package domain

// ChatMetrics is the JSON shape of the GET /v1/metrics/chat snapshot.
type ChatMetrics struct {
	ConversationsSaved    int64   `json:"conversations_saved"`
	ConversationsRejected int64   `json:"conversations_rejected"`
	ConversationsFailed   int64   `json:"conversations_failed"`
	FailureRate           float64 `json:"failure_rate"`
	BotMessages           int64   `json:"bot_messages"`
	UserMessages          int64   `json:"user_messages"`
	ActiveSessions        int64   `json:"active_sessions"`
	Period                string  `json:"period"`
}
