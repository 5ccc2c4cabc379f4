package ui

import (
	"fmt"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

const DefaultMaxLogMessages = 100

type logEntry struct {
	text    string
	repeats int
}

func (e logEntry) String() string {
	if e.repeats > 1 {
		return fmt.Sprintf("%s (x%d)", e.text, e.repeats)
	}
	return e.text
}

// LogUIManager keeps the recent log messages for the status bar. The user
// pages through them with the up and down buttons. Consecutive identical
// messages collapse into one entry with a repeat count.
type LogUIManager struct {
	entries []logEntry
	cursor  int
	limit   int

	label      *widget.Label
	prev, next *widget.Button
}

// NewLogUIManager wires the status bar widgets. A non-positive limit
// means DefaultMaxLogMessages.
func NewLogUIManager(label *widget.Label, prev, next *widget.Button, limit int) *LogUIManager {
	if limit <= 0 {
		limit = DefaultMaxLogMessages
	}
	lm := &LogUIManager{cursor: -1, limit: limit, label: label, prev: prev, next: next}
	if prev != nil {
		prev.OnTapped = lm.ShowPreviousLogMessage
	}
	if next != nil {
		next.OnTapped = lm.ShowNextLogMessage
	}
	return lm
}

// AddLogMessage records message and jumps to it. UI goroutine only.
func (lm *LogUIManager) AddLogMessage(message string) {
	if n := len(lm.entries); n > 0 && lm.entries[n-1].text == message {
		lm.entries[n-1].repeats++
	} else {
		lm.entries = append(lm.entries, logEntry{text: message, repeats: 1})
		if over := len(lm.entries) - lm.limit; over > 0 {
			lm.entries = lm.entries[over:]
		}
	}
	lm.cursor = len(lm.entries) - 1
	lm.UpdateLogDisplay()
}

// Logger returns a logger usable from any goroutine. Messages go to the
// console at once and reach the status bar on the UI goroutine.
func (lm *LogUIManager) Logger(prefix string) func(string) {
	return func(message string) {
		if prefix != "" {
			message = prefix + ": " + message
		}
		log.Print(message)
		fyne.Do(func() { lm.AddLogMessage(message) })
	}
}

// Messages returns the stored entries, oldest first.
func (lm *LogUIManager) Messages() []string {
	out := make([]string, len(lm.entries))
	for i, e := range lm.entries {
		out[i] = e.String()
	}
	return out
}

func setEnabled(b *widget.Button, on bool) {
	if on {
		b.Enable()
	} else {
		b.Disable()
	}
}

// UpdateLogDisplay renders the entry under the cursor.
func (lm *LogUIManager) UpdateLogDisplay() {
	if lm.label == nil || lm.prev == nil || lm.next == nil {
		return
	}
	n := len(lm.entries)
	if n == 0 {
		lm.label.SetText("")
		setEnabled(lm.prev, false)
		setEnabled(lm.next, false)
		return
	}
	lm.cursor = max(0, min(lm.cursor, n-1))
	lm.label.SetText(fmt.Sprintf("[%d/%d] %s", lm.cursor+1, n, lm.entries[lm.cursor]))
	setEnabled(lm.prev, lm.cursor > 0)
	setEnabled(lm.next, lm.cursor < n-1)
}

// ShowPreviousLogMessage moves to the older entry.
func (lm *LogUIManager) ShowPreviousLogMessage() {
	if lm.cursor > 0 {
		lm.cursor--
		lm.UpdateLogDisplay()
	}
}

// ShowNextLogMessage moves to the newer entry.
func (lm *LogUIManager) ShowNextLogMessage() {
	if lm.cursor < len(lm.entries)-1 {
		lm.cursor++
		lm.UpdateLogDisplay()
	}
}
