package queue

// FlowEventMessage 会话流程对外发布的事件，routing key 即 Topic
type FlowEventMessage struct {
	Attributes map[string]string `json:"attributes,omitempty"`
	MessageID  string            `json:"message_id"`
	SessionID  string            `json:"session_id"`
	Topic      string            `json:"topic"`
	OccurredAt string            `json:"occurred_at"`
}
