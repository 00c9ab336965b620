package signature

import (
	"strings"

	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"
)

// childElementsNS returns the direct child elements of el with the
// given namespace URI and tag.
func childElementsNS(el *etree.Element, ns, tag string) []*etree.Element {
	var out []*etree.Element
	for _, child := range el.ChildElements() {
		if child.Tag == tag && child.NamespaceURI() == ns {
			out = append(out, child)
		}
	}
	return out
}

// elementID resolves the ID value for an element to be signed. The
// candidate attribute names are checked in order against a snapshot of
// the element's attributes; the first non-empty value wins. Returns ""
// when no candidate matches.
func elementID(el *etree.Element, candidates []string) string {
	attrs := make([]etree.Attr, len(el.Attr))
	copy(attrs, el.Attr)

	for _, name := range candidates {
		for _, attr := range attrs {
			if attr.Space == "" && attr.Key == name {
				if v := strings.TrimSpace(attr.Value); v != "" {
					return v
				}
			}
		}
	}
	return ""
}

// resolveReferenceTarget resolves a reference URI against the document
// containing root. An empty URI implicitly targets the document root.
// A fragment URI resolves to the first element, in document order,
// carrying an attribute whose value equals the fragment; the document
// root is preferred when it matches. Returns nil when nothing resolves.
func resolveReferenceTarget(root *etree.Element, uri string) *etree.Element {
	if uri == "" {
		return root
	}
	id := strings.TrimPrefix(uri, "#")
	if hasAttrValue(root, id) {
		return root
	}
	return findElementByAttrValue(root, id)
}

func hasAttrValue(el *etree.Element, value string) bool {
	for _, attr := range el.Attr {
		if attr.Value == value {
			return true
		}
	}
	return false
}

func findElementByAttrValue(el *etree.Element, value string) *etree.Element {
	if hasAttrValue(el, value) {
		return el
	}
	for _, child := range el.ChildElements() {
		if found := findElementByAttrValue(child, value); found != nil {
			return found
		}
	}
	return nil
}

// elementPath maps el to its child-index path relative to root, so the
// corresponding element can be located again in a copied tree.
func elementPath(root, el *etree.Element) []int {
	for i, child := range root.Child {
		if child == el {
			return []int{i}
		}
	}
	for i, child := range root.Child {
		if childElement, ok := child.(*etree.Element); ok {
			if childPath := elementPath(childElement, el); childPath != nil {
				return append([]int{i}, childPath...)
			}
		}
	}
	return nil
}

// removeElementAtPath removes the element at the given child-index path
// from el, reporting whether a removal happened.
func removeElementAtPath(el *etree.Element, path []int) bool {
	if len(path) == 0 || path[0] >= len(el.Child) {
		return false
	}
	if len(path) == 1 {
		el.RemoveChildAt(path[0])
		return true
	}
	childElement, ok := el.Child[path[0]].(*etree.Element)
	if !ok {
		return false
	}
	return removeElementAtPath(childElement, path[1:])
}

// StripCRs removes carriage returns from the text content of the
// SignatureValue and X509Certificate descendants of a Signature
// element. Serialization layers that rewrite line endings otherwise
// corrupt the base64 blocks. The operation is idempotent.
func StripCRs(signatureEl *etree.Element) {
	stripCRsFromNamed(signatureEl, "SignatureValue")
	stripCRsFromNamed(signatureEl, "X509Certificate")
}

func stripCRsFromNamed(el *etree.Element, tag string) {
	if el.Tag == tag && el.NamespaceURI() == dsig.Namespace {
		if text := el.Text(); strings.ContainsRune(text, '\r') {
			el.SetText(strings.ReplaceAll(text, "\r", ""))
		}
	}
	for _, child := range el.ChildElements() {
		stripCRsFromNamed(child, tag)
	}
}
