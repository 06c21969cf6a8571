package service

// Notifier is the fan-out surface services emit state changes through.
// Three delivery scopes exist: every connected client, the clients joined
// to one conversation's room, and the clients of a single user.
type Notifier interface {
	Broadcast(event string, payload any)
	ToRoom(roomID, event string, payload any)
	ToUser(userID, event string, payload any)
}

// NopNotifier discards everything. Used by tests and one-shot tooling.
type NopNotifier struct{}

func (NopNotifier) Broadcast(string, any)      {}
func (NopNotifier) ToRoom(string, string, any) {}
func (NopNotifier) ToUser(string, string, any) {}
