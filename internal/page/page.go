package page

// ChangeKind distinguishes the two mutations a page supports.
type ChangeKind string

const (
	// KindText replaces the text content of an element.
	KindText ChangeKind = "text"

	// KindClass adds or removes a class on one indicator element.
	KindClass ChangeKind = "class"
)

// Change describes one mutation of the page, in the form the dashboard
// script applies to the browser DOM.
type Change struct {
	Kind ChangeKind `json:"kind"`

	// ID and Text are set for text changes.
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`

	// Container, Member, Index, Class and On are set for class changes.
	Container string `json:"container,omitempty"`
	Member    string `json:"member,omitempty"`
	Index     int    `json:"index"`
	Class     string `json:"class,omitempty"`
	On        bool   `json:"on"`
}

// Store is the read side of a page, consumed by the HTTP server.
//
// Implementations must be safe for concurrent access.
type Store interface {
	// Snapshot returns the changes that rebuild the current page state
	// from the initial markup.
	Snapshot() []Change

	// Subscribe returns a channel that receives every subsequent change.
	// The channel is closed if the subscriber falls behind; the caller
	// should end its stream so the client reconnects from a snapshot.
	// Caller must call Unsubscribe when done.
	Subscribe() <-chan Change

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan Change)

	// Subscribers returns the number of active subscriptions.
	Subscribers() int
}
