// Package notify defines the user-visible notifications (toasts) emitted by
// the dashboard services.
package notify

// Notification is a short user-visible message.
type Notification struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Destructive bool   `json:"destructive,omitempty"`
}

// Copy returns a pointer to a copy of n, or nil.
func Copy(n *Notification) *Notification {
	if n == nil {
		return nil
	}
	c := *n
	return &c
}
