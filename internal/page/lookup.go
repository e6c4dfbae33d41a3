package page

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Locator is one way of finding a region: a CSS selector plus an optional
// predicate over the region's cleaned text.
type Locator struct {
	Selector string
	Accept   func(text string) bool
}

// Lookup is an ordered list of locators for one logical region. The first
// locator that yields a present, non-empty, accepted region wins.
type Lookup struct {
	Name     string
	Locators []Locator
}

// Selectors builds a lookup from plain selectors.
func Selectors(name string, sels ...string) Lookup {
	p := Lookup{Name: name}
	for _, s := range sels {
		p.Locators = append(p.Locators, Locator{Selector: s})
	}
	return p
}

// Accepting returns a copy of p whose locators all require accept.
func (p Lookup) Accepting(accept func(string) bool) Lookup {
	out := Lookup{Name: p.Name, Locators: make([]Locator, len(p.Locators))}
	for i, l := range p.Locators {
		l.Accept = accept
		out.Locators[i] = l
	}
	return out
}

// Match is the region a lookup resolved to.
type Match struct {
	Selector  string
	Selection *goquery.Selection
	Text      string
}

// First tries each locator against the first element it selects under root.
func (p Lookup) First(root *goquery.Selection) (Match, bool) {
	for _, l := range p.Locators {
		sel, ok := Find(root, l.Selector)
		if !ok || sel.Length() == 0 {
			continue
		}
		el := sel.First()
		text := CleanText(el.Text())
		if text == "" {
			continue
		}
		if l.Accept != nil && !l.Accept(text) {
			continue
		}
		return Match{Selector: l.Selector, Selection: el, Text: text}, true
	}
	return Match{}, false
}

// FirstNode is like First but does not require text, only presence.
func (p Lookup) FirstNode(root *goquery.Selection) (Match, bool) {
	for _, l := range p.Locators {
		sel, ok := Find(root, l.Selector)
		if !ok || sel.Length() == 0 {
			continue
		}
		return Match{Selector: l.Selector, Selection: sel.First(), Text: CleanText(sel.First().Text())}, true
	}
	return Match{}, false
}

// All returns every element matched by the first locator that matches
// anything. Accept predicates are ignored.
func (p Lookup) All(root *goquery.Selection) (Match, bool) {
	for _, l := range p.Locators {
		sel, ok := Find(root, l.Selector)
		if ok && sel.Length() > 0 {
			return Match{Selector: l.Selector, Selection: sel}, true
		}
	}
	return Match{}, false
}

// Find runs selector under root. Selectors that do not compile, or that
// panic while matching, report false instead of failing the caller.
func Find(root *goquery.Selection, selector string) (sel *goquery.Selection, ok bool) {
	if root == nil {
		return nil, false
	}
	if _, err := cascadia.Compile(selector); err != nil {
		return nil, false
	}
	defer func() {
		if r := recover(); r != nil {
			sel, ok = nil, false
		}
	}()
	return root.Find(selector), true
}
