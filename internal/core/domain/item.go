package domain

import (
	"github.com/beevik/etree"
)

// Item wraps one standalone XML document flowing through the pipeline.
// The document root is the element stages sign or validate; status
// metadata accumulates on the item as stages process it.
//
// An Item is not safe for concurrent use. Distinct items may be
// processed concurrently by separate goroutines.
type Item struct {
	doc      *etree.Document
	statuses []Status
}

// NewItem creates an Item wrapping the given document. The document
// must have a root element.
func NewItem(doc *etree.Document) *Item {
	return &Item{doc: doc}
}

// Document returns the wrapped document.
func (i *Item) Document() *etree.Document {
	return i.doc
}

// Root returns the document root element, or nil for an empty document.
func (i *Item) Root() *etree.Element {
	return i.doc.Root()
}

// AddStatus appends a status metadata entry to the item.
func (i *Item) AddStatus(s Status) {
	i.statuses = append(i.statuses, s)
}

// Statuses returns the accumulated status metadata in the order it
// was attached.
func (i *Item) Statuses() []Status {
	return i.statuses
}

// HasErrors reports whether any error-severity status is attached.
func (i *Item) HasErrors() bool {
	for _, s := range i.statuses {
		if s.Severity == SeverityError {
			return true
		}
	}
	return false
}
