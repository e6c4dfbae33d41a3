package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chromedp/chromedp"

	"linkedva-engine/internal/page"
)

const insertBody = `
  const text = %s;
  el.focus();
  if (el instanceof HTMLTextAreaElement || el instanceof HTMLInputElement) {
    const start = el.selectionStart ?? el.value.length;
    const end = el.selectionEnd ?? el.value.length;
    const original = el.value;
    el.value = original.slice(0, start) + text + original.slice(end);
    const cursor = start + text.length;
    el.setSelectionRange(cursor, cursor);
    el.dispatchEvent(new Event('input', { bubbles: true }));
    return true;
  }
  if (el.isContentEditable) {
    const selection = window.getSelection();
    if (!selection) {
      el.innerText = text;
      return true;
    }
    selection.removeAllRanges();
    const range = document.createRange();
    range.selectNodeContents(el);
    range.collapse(false);
    selection.addRange(range);
    document.execCommand('insertText', false, text);
    return true;
  }
  return false;`

// Editor inserts text into an editable field of a live tab.
type Editor struct {
	Tab   *Tab
	Field page.Element
}

func (e Editor) Insert(ctx context.Context, text string) error {
	quoted, err := json.Marshal(text)
	if err != nil {
		return err
	}
	var ok bool
	js := elementScript(e.Field, fmt.Sprintf(insertBody, quoted), "false")
	if err := e.Tab.run(ctx, chromedp.Evaluate(js, &ok)); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("insert into %s[%d]: %w", e.Field.Selector, e.Field.Index, ErrElementNotFound)
	}
	return nil
}
