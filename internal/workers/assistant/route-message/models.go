// internal/workers/assistant/route-message/models.go
package routemessage

type Input struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type Output struct {
	Reply    string            `json:"reply"`
	Intent   string            `json:"intent"`
	Source   string            `json:"source"`
	Status   string            `json:"status"`
	Entities map[string]string `json:"entities,omitempty"`
}
