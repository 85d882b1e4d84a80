package assistant

import "sync"

// DefaultName is what the user is called until they say otherwise
const DefaultName = "blacknox"

// UserContext is the state the assistant remembers about the user for the
// lifetime of the process. It is shared by the console loop and the remote
// surfaces, so access is serialised.
type UserContext struct {
	mu   sync.RWMutex
	name string
}

// NewUserContext returns a context holding the default name
func NewUserContext() *UserContext {
	return &UserContext{name: DefaultName}
}

// Name returns the user's current name
func (u *UserContext) Name() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.name
}

// SetName replaces the user's name. Last write wins.
func (u *UserContext) SetName(name string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.name = name
}
