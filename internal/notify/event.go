package notify

import "encoding/json"

type Kind string

const (
	KindBooked    Kind = "BOOKED"
	KindCancelled Kind = "CANCELLED"
)

// Event is the notification announced after an appointment mutation commits.
// Its JSON form is what subscribers and relays receive.
type Event struct {
	Kind  Kind   `json:"event"`
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

func Booked(id, title string) Event {
	return Event{Kind: KindBooked, ID: id, Title: title}
}

func Cancelled(id string) Event {
	return Event{Kind: KindCancelled, ID: id}
}

func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}
