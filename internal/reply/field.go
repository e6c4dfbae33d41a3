package reply

import "context"

// Editor puts a chosen draft into the field being replied in.
type Editor interface {
	Insert(ctx context.Context, text string) error
}

// Field is an in-memory editable field. Offsets count characters.
type Field struct {
	Value           string `json:"value"`
	SelectionStart  *int   `json:"selectionStart,omitempty"`
	SelectionEnd    *int   `json:"selectionEnd,omitempty"`
	ContentEditable bool   `json:"contentEditable,omitempty"`
	// Cursor is where the caret sits after the last insert.
	Cursor int `json:"cursor"`

	// OnInput is called with the new value after every insert.
	OnInput func(value string) `json:"-"`
}

// Insert splices text over the selection of a text field, or appends it at
// the end of rich text, and then fires OnInput.
func (f *Field) Insert(_ context.Context, text string) error {
	r := []rune(f.Value)
	ins := []rune(text)

	if f.ContentEditable {
		f.Value = string(append(r, ins...))
		f.Cursor = len(r) + len(ins)
	} else {
		start := clamp(f.SelectionStart, len(r))
		end := clamp(f.SelectionEnd, len(r))
		if end < start {
			end = start
		}
		out := make([]rune, 0, len(r)+len(ins))
		out = append(out, r[:start]...)
		out = append(out, ins...)
		out = append(out, r[end:]...)
		f.Value = string(out)
		f.Cursor = start + len(ins)
	}

	c := f.Cursor
	f.SelectionStart, f.SelectionEnd = &c, &c
	if f.OnInput != nil {
		f.OnInput(f.Value)
	}
	return nil
}

func clamp(p *int, n int) int {
	if p == nil || *p > n {
		return n
	}
	if *p < 0 {
		return 0
	}
	return *p
}
