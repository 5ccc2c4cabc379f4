package gallery

import "fmt"

// IntentKind names a request the engine raises to its collaborators.
type IntentKind int

const (
	IntentOpenItem IntentKind = iota
	IntentBatchDelete
	IntentBatchTag
	IntentToggleFavorite
	IntentSelectAll
	IntentClearSelection
	IntentReorder
)

func (k IntentKind) String() string {
	switch k {
	case IntentOpenItem:
		return "open-item"
	case IntentBatchDelete:
		return "batch-delete"
	case IntentBatchTag:
		return "batch-tag"
	case IntentToggleFavorite:
		return "toggle-favorite"
	case IntentSelectAll:
		return "select-all"
	case IntentClearSelection:
		return "clear-selection"
	case IntentReorder:
		return "reorder"
	}
	return fmt.Sprintf("IntentKind(%d)", int(k))
}

// Intent is a request to an external collaborator. It carries everything
// needed to complete it. The engine never assumes an intent succeeded; it
// waits for the next SetItems.
type Intent struct {
	Kind IntentKind
	IDs  []string

	// DeleteFile also removes the underlying files (BatchDelete only).
	DeleteFile bool
	// Confirmed is set once the user has confirmed a BatchDelete.
	Confirmed bool

	Tags []string

	// Order is the full new id order (Reorder only).
	Order []string
}

// Confirm returns a confirmed copy of a BatchDelete intent.
func (in Intent) Confirm(deleteFile bool) Intent {
	out := in
	out.IDs = append([]string(nil), in.IDs...)
	out.DeleteFile = deleteFile
	out.Confirmed = true
	return out
}

// WithTags returns a copy of a BatchTag intent carrying tags.
func (in Intent) WithTags(tags []string) Intent {
	out := in
	out.IDs = append([]string(nil), in.IDs...)
	out.Tags = append([]string(nil), tags...)
	return out
}

func (in Intent) String() string {
	switch in.Kind {
	case IntentBatchDelete:
		return fmt.Sprintf("%s %v deleteFile=%t confirmed=%t", in.Kind, in.IDs, in.DeleteFile, in.Confirmed)
	case IntentBatchTag:
		return fmt.Sprintf("%s %v tags=%v", in.Kind, in.IDs, in.Tags)
	case IntentReorder:
		return fmt.Sprintf("%s %v", in.Kind, in.Order)
	}
	return fmt.Sprintf("%s %v", in.Kind, in.IDs)
}

// MoveID returns a new order with the id at from moved to index to.
// Out of range indices return a copy of order unchanged.
func MoveID(order []string, from, to int) []string {
	out := append([]string(nil), order...)
	if from < 0 || from >= len(out) || to < 0 || to >= len(out) || from == to {
		return out
	}
	id := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]string{id}, out[to:]...)...)
	return out
}
