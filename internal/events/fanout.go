package events

import (
	"context"

	"github.com/franckabsuser/bam/internal/service"
)

// FanOut wraps the hub with the Kafka mirror: broadcast-scope events are
// additionally produced to the topic, room- and user-scoped deliveries
// stay in-process.
type FanOut struct {
	hub service.Notifier
	pub *Publisher
}

func NewFanOut(hub service.Notifier, pub *Publisher) *FanOut {
	return &FanOut{hub: hub, pub: pub}
}

func (f *FanOut) Broadcast(event string, payload any) {
	f.hub.Broadcast(event, payload)
	f.pub.Publish(context.Background(), event, payload)
}

func (f *FanOut) ToRoom(roomID, event string, payload any) {
	f.hub.ToRoom(roomID, event, payload)
}

func (f *FanOut) ToUser(userID, event string, payload any) {
	f.hub.ToUser(userID, event, payload)
}
