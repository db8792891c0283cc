package deck

// Wire message shapes published to subscribers. Every message carries a
// "type" discriminator; receivers ignore types they do not know.

// SlideMessage delivers one rendered slide.
type SlideMessage struct {
	Type       string `json:"type"` // "slide"
	SlideIndex int    `json:"slideIndex"`
	Title      string `json:"title"`
	HTML       string `json:"html"`
}

// ProgressMessage is a human-readable progress line.
type ProgressMessage struct {
	Type    string `json:"type"` // "progress"
	Message string `json:"message"`
}

// TodoUpdateMessage reports a checklist state change.
type TodoUpdateMessage struct {
	Type       string `json:"type"` // "todo_update"
	SlideIndex int    `json:"slideIndex"`
	Completed  bool   `json:"completed"`
}

// CompleteMessage marks the end of a successful generation run.
type CompleteMessage struct {
	Type    string `json:"type"` // "generation_complete"
	Message string `json:"message"`
}

// ErrorMessage marks a failed generation run.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// PongMessage answers a subscriber ping.
type PongMessage struct {
	Type string `json:"type"` // "pong"
}

// NewSlideMessage builds the wire form of a slide.
func NewSlideMessage(s Slide) SlideMessage {
	return SlideMessage{Type: "slide", SlideIndex: s.Index, Title: s.Title, HTML: s.HTML}
}

// NewProgressMessage builds a progress line.
func NewProgressMessage(msg string) ProgressMessage {
	return ProgressMessage{Type: "progress", Message: msg}
}

// NewTodoUpdateMessage builds a checklist update.
func NewTodoUpdateMessage(index int, completed bool) TodoUpdateMessage {
	return TodoUpdateMessage{Type: "todo_update", SlideIndex: index, Completed: completed}
}

// NewCompleteMessage builds the terminal success message.
func NewCompleteMessage(msg string) CompleteMessage {
	return CompleteMessage{Type: "generation_complete", Message: msg}
}

// NewErrorMessage builds the terminal failure message.
func NewErrorMessage(msg, details string) ErrorMessage {
	return ErrorMessage{Type: "error", Message: msg, Details: details}
}
