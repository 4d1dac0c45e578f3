package editor

// Tool represents the current interaction tool. Exactly one is active at
// a time; it determines how pointer events are interpreted.
type Tool int

const (
	ToolSelect Tool = iota
	ToolHighlight
	ToolAnnotate
	ToolErase
)

func (t Tool) String() string {
	switch t {
	case ToolSelect:
		return "select"
	case ToolHighlight:
		return "highlight"
	case ToolAnnotate:
		return "annotate"
	case ToolErase:
		return "erase"
	default:
		return "unknown"
	}
}
