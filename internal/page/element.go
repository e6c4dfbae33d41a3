package page

import "github.com/PuerkitoBio/goquery"

// Element addresses one node in a live page: the index-th match of
// Selector in document order. It lets a goquery snapshot point back at the
// node a browser should act on.
type Element struct {
	Selector string `json:"selector"`
	Index    int    `json:"index"`
}

// Locate returns the document-level address of the first node in sel,
// resolved against selector.
func Locate(doc *goquery.Document, selector string, sel *goquery.Selection) (Element, bool) {
	if doc == nil || sel == nil || sel.Length() == 0 {
		return Element{}, false
	}
	all, ok := Find(doc.Selection, selector)
	if !ok {
		return Element{}, false
	}
	i := all.IndexOfSelection(sel.First())
	if i < 0 {
		return Element{}, false
	}
	return Element{Selector: selector, Index: i}, true
}

// Resolve returns the node el addresses in doc. The selection is empty
// when nothing matches and nil when doc is nil.
func Resolve(doc *goquery.Document, el Element) *goquery.Selection {
	if doc == nil {
		return nil
	}
	sel, ok := Find(doc.Selection, el.Selector)
	if !ok || el.Index < 0 {
		return doc.Selection.Slice(0, 0)
	}
	return sel.Eq(el.Index)
}
