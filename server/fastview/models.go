// fastview implements a builder pattern for simple server-side views:
// given an input data format, apply a transformation to a view-model,
// and then multiplex that data to one or more views whose elements are
// updated in place on the client.
package fastview

import (
	"html/template"
)

// EleUpdate is an element identifier and a set of operations to apply to its attributes/content.
type EleUpdate struct {
	// The id by which to find the element
	EleId string
	// Op keys are attrib keys or 'textContent', values are the strings to which these are set.
	// Example: ('points','1,2 3,4 5,6') means 'set attribute 'points' to '1,2 3,4 5,6'. 'textContent' is
	// a reserved key: ('textContent','Usable Ace') means 'set ele.textContent to Usable Ace'.
	Ops []Op
}

// Op is a key and value. For example an svg attribute and its new value.
type Op struct {
	Key   string
	Value string
}

// TEXT_CONTENT is the reserved Op key for replacing an element's text.
const TEXT_CONTENT = "textContent"

// ViewComponent implements server side views: Parse to add their initial form to the page
// template and Updates to obtain the chan by which ele-updates are notified.
type ViewComponent interface {
	Updates() <-chan []EleUpdate
	// Parse parses the view-component and adds it to the passed parent template, returning
	// the name of its define block. The parent's func-map is inherited.
	Parse(*template.Template) (string, error)
}

// ClientMessage is a message sent from the page to the server over the websocket.
type ClientMessage struct {
	Kind string `json:"kind"`
	// View is the id of the view the message concerns, if any.
	View string `json:"view,omitempty"`
}

// DISMISS is the message kind sent when the viewer dismisses the displayed figure.
const DISMISS = "dismiss"
