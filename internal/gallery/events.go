package gallery

// ThumbnailProgressChannel is the event name the thumbnail pipeline publishes on.
const ThumbnailProgressChannel = "thumbnail_progress"

// Progress stages the engine reacts to. Anything else is ignored.
const (
	StageGenerating = "generating"
	StageComplete   = "complete"
	StageError      = "error"
)

// ProgressEvent is a backend pipeline notification.
type ProgressEvent struct {
	Stage   string
	ItemID  string
	Message string
	Current int
	Total   int
}

// Item is one gallery entry. ID is a stable content-derived identity.
type Item struct {
	ID       string
	Width    int
	Height   int
	ByteSize int64
	Path     string
}

// Key is a keyboard command the engine understands.
type Key int

const (
	KeyEscape Key = iota
	KeyDelete
	KeySelectAll
	KeyRefresh
)
