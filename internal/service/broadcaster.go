package service

// Message types pushed to session subscribers
const (
	MessageView   = "view"
	MessageReport = "report"
)

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToSession(sessionID string, msgType string, payload interface{})
	DisconnectSession(sessionID string)
}

type noopBroadcaster struct{}

func (noopBroadcaster) BroadcastToSession(string, string, interface{}) {}
func (noopBroadcaster) DisconnectSession(string) {}
