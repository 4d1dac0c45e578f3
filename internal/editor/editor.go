// Package editor implements the pointer-driven interaction state machine
// that turns tool + pointer streams into scene mutations and history
// commits. All methods run on the UI event loop; the package does no
// locking and starts no goroutines.
package editor

import (
	"time"

	"image-markup/internal/history"
	"image-markup/internal/scene"
	"image-markup/pkg/geometry"
)

// DoubleClickWindow is the maximum delay between two clicks on the same
// annotation for the second one to open text editing.
const DoubleClickWindow = 300 * time.Millisecond

type gestureState int

const (
	stateIdle gestureState = iota
	stateDrawing
	stateDragging
	stateEditingText
)

// TextEdit describes an open annotation editing session. ObjectID is
// empty for a brand-new annotation anchored at the click point.
type TextEdit struct {
	ObjectID string
	Anchor   geometry.Point2D
	Initial  string
}

// Callbacks notifies the surrounding shell of editor activity. Nil fields
// are skipped. The engine never calls back into itself through these.
type Callbacks struct {
	// SceneChanged fires after any visible scene mutation.
	SceneChanged func()

	// Committed fires after a history snapshot is recorded, the moment
	// an external collaborator should persist the session.
	Committed func()

	// ToolChanged fires after a successful tool switch.
	ToolChanged func(Tool)

	// EditStarted fires when a text editing session opens; the shell is
	// expected to present an entry and end the session with CommitText
	// or CancelText.
	EditStarted func(TextEdit)
}

// Editor owns a scene and its history and drives both from pointer and
// keyboard events.
type Editor struct {
	scene   *scene.Scene
	history *history.History
	cb      Callbacks

	tool  Tool
	state gestureState

	strokeColor string
	strokeWidth float64
	fontSize    float64

	// Drawing gesture
	activeStroke string
	erasedAny    bool

	// Dragging gesture
	dragID     string
	dragOffset geometry.Point2D
	dragMoved  bool

	// Double-click tracking for the select tool
	lastClickAt time.Time
	lastClickID string

	editing *TextEdit

	now func() time.Time
}

// New creates an editor with an empty scene and a history seeded with a
// single empty entry.
func New(cb Callbacks) *Editor {
	sc := scene.New()
	return &Editor{
		scene:       sc,
		history:     history.New(sc),
		cb:          cb,
		tool:        ToolHighlight,
		strokeColor: "#ef4444",
		strokeWidth: 8,
		fontSize:    24,
		now:         time.Now,
	}
}

// Scene returns the live scene. External collaborators read it for
// flattening and serialization; the editor's operations are the only
// mutation entry points.
func (e *Editor) Scene() *scene.Scene { return e.scene }

// History returns the undo/redo timeline.
func (e *Editor) History() *history.History { return e.history }

// Tool returns the active tool.
func (e *Editor) Tool() Tool { return e.tool }

// SetTool switches the active tool. The switch is refused while a
// gesture or a text edit is in progress, so no partial stroke is ever
// orphaned. Moving away from the select tool clears the selection.
func (e *Editor) SetTool(t Tool) bool {
	if e.state != stateIdle {
		return false
	}
	if t == e.tool {
		return true
	}
	e.tool = t
	if t != ToolSelect {
		e.scene.ClearSelection()
		e.notifySceneChanged()
	}
	if e.cb.ToolChanged != nil {
		e.cb.ToolChanged(t)
	}
	return true
}

// GestureInProgress reports whether a drawing or dragging gesture is
// active; the UI disables tool buttons while it is true.
func (e *Editor) GestureInProgress() bool {
	return e.state == stateDrawing || e.state == stateDragging
}

// Editing returns the open text editing session, or nil.
func (e *Editor) Editing() *TextEdit {
	return e.editing
}

// StrokeColor returns the current drawing color as "#rrggbb".
func (e *Editor) StrokeColor() string { return e.strokeColor }

// SetStrokeColor sets the color for new strokes and annotations.
func (e *Editor) SetStrokeColor(hex string) { e.strokeColor = hex }

// StrokeWidth returns the width for new strokes, in image-space pixels.
func (e *Editor) StrokeWidth() float64 { return e.strokeWidth }

// SetStrokeWidth sets the width for new strokes.
func (e *Editor) SetStrokeWidth(w float64) { e.strokeWidth = w }

// FontSize returns the size for new annotations, in image-space pixels.
func (e *Editor) FontSize() float64 { return e.fontSize }

// SetFontSize sets the size for new annotations.
func (e *Editor) SetFontSize(s float64) { e.fontSize = s }

// PointerDown handles a pointer press at an image-space point.
func (e *Editor) PointerDown(p geometry.Point2D) {
	if e.state != stateIdle {
		// Text editing is modal to canvas pointer events; a down while
		// drawing/dragging means events arrived out of order and is
		// ignored as well.
		return
	}

	switch e.tool {
	case ToolAnnotate:
		e.beginTextEdit(&TextEdit{Anchor: p})

	case ToolHighlight:
		e.activeStroke = e.scene.AddStroke(e.strokeColor, e.strokeWidth, p)
		e.state = stateDrawing
		e.notifySceneChanged()

	case ToolErase:
		e.erasedAny = false
		e.eraseAt(p)
		e.state = stateDrawing

	case ToolSelect:
		e.selectAt(p)
	}
}

// PointerMove handles pointer motion. Moves outside an active gesture
// are cheap no-ops.
func (e *Editor) PointerMove(p geometry.Point2D) {
	switch e.state {
	case stateDrawing:
		switch e.tool {
		case ToolHighlight:
			e.scene.ExtendStroke(e.activeStroke, p)
			e.notifySceneChanged()
		case ToolErase:
			e.eraseAt(p)
		}
	case stateDragging:
		e.dragMoved = true
		e.scene.MoveAnnotation(e.dragID, p.Sub(e.dragOffset))
		e.notifySceneChanged()
	}
}

// PointerUp completes the gesture in progress, committing a history
// snapshot for completed draw/drag/erase gestures.
func (e *Editor) PointerUp() {
	switch e.state {
	case stateDrawing:
		e.state = stateIdle
		if e.tool == ToolErase {
			e.activeStroke = ""
			// An erase swipe that removed nothing leaves no history entry.
			if e.erasedAny {
				e.commit()
			}
			return
		}
		e.activeStroke = ""
		e.commit()

	case stateDragging:
		moved := e.dragMoved
		e.dragID = ""
		e.dragMoved = false
		e.state = stateIdle
		if moved {
			e.commit()
		}
	}
}

// PointerLeave is treated like a pointer release: the gesture in
// progress completes rather than dangling.
func (e *Editor) PointerLeave() {
	e.PointerUp()
}

// KeyDelete removes the current selection. Ignored while a gesture or
// text edit is in progress. No history entry is recorded when nothing
// was selected.
func (e *Editor) KeyDelete() {
	if e.state != stateIdle {
		return
	}
	if e.scene.RemoveSelected() > 0 {
		e.notifySceneChanged()
		e.commit()
	}
}

// CommitText ends the open text editing session with the given text.
// Blank text is a cancel: nothing is created or modified.
func (e *Editor) CommitText(text string) {
	edit := e.editing
	if edit == nil {
		return
	}
	e.editing = nil
	e.state = stateIdle

	var id string
	if edit.ObjectID == "" {
		id = e.scene.UpsertAnnotation("", text, edit.Anchor, e.strokeColor, e.fontSize)
	} else {
		ann, ok := e.scene.Find(edit.ObjectID).(*scene.TextAnnotation)
		if !ok {
			return
		}
		id = e.scene.UpsertAnnotation(ann.ID, text, ann.Position, ann.Color, ann.FontSize)
	}
	if id == "" {
		return
	}
	e.notifySceneChanged()
	e.commit()
}

// CancelText ends the open text editing session without touching the
// scene.
func (e *Editor) CancelText() {
	if e.editing == nil {
		return
	}
	e.editing = nil
	e.state = stateIdle
}

// CanUndo reports whether an undo step is available.
func (e *Editor) CanUndo() bool { return e.state == stateIdle && e.history.CanUndo() }

// CanRedo reports whether a redo step is available.
func (e *Editor) CanRedo() bool { return e.state == stateIdle && e.history.CanRedo() }

// Undo restores the previous history entry. No-op at the start of the
// timeline or while a gesture is in progress.
func (e *Editor) Undo() {
	if e.state != stateIdle {
		return
	}
	if snap := e.history.Undo(); snap != nil {
		e.scene.Replace(snap)
		e.notifySceneChanged()
	}
}

// Redo restores the next history entry. No-op at the head.
func (e *Editor) Redo() {
	if e.state != stateIdle {
		return
	}
	if snap := e.history.Redo(); snap != nil {
		e.scene.Replace(snap)
		e.notifySceneChanged()
	}
}

// Clear empties the scene and reseeds the history with a single empty
// entry, as when the user clears the canvas.
func (e *Editor) Clear() {
	e.abortGesture()
	e.scene.Clear()
	e.history.Reset(e.scene)
	e.notifySceneChanged()
	if e.cb.Committed != nil {
		e.cb.Committed()
	}
}

// LoadScene replaces the scene contents (session restore or a new base
// image) and reseeds the history from the loaded state. Pass nil to
// start from an empty scene.
func (e *Editor) LoadScene(loaded *scene.Scene) {
	e.abortGesture()
	if loaded == nil {
		e.scene.Clear()
	} else {
		e.scene.Replace(loaded)
	}
	e.history.Reset(e.scene)
	e.notifySceneChanged()
}

// abortGesture drops any in-progress gesture state without committing.
func (e *Editor) abortGesture() {
	e.state = stateIdle
	e.activeStroke = ""
	e.dragID = ""
	e.dragMoved = false
	e.editing = nil
}

func (e *Editor) beginTextEdit(edit *TextEdit) {
	e.scene.ClearSelection()
	e.editing = edit
	e.state = stateEditingText
	e.notifySceneChanged()
	if e.cb.EditStarted != nil {
		e.cb.EditStarted(*edit)
	}
}

// eraseAt removes the topmost object under the point, one hit test per
// pointer sample. Fast pointer motion can skip past thin objects between
// samples; that matches the source behavior and is accepted.
func (e *Editor) eraseAt(p geometry.Point2D) {
	id := e.scene.HitTest(p)
	if id == "" {
		return
	}
	e.scene.RemoveObject(id)
	e.erasedAny = true
	e.notifySceneChanged()
}

// selectAt implements the select tool's pointer-down: double-click on an
// annotation opens text editing, a single click selects (and starts a
// drag for annotations), a click on empty space clears the selection.
func (e *Editor) selectAt(p geometry.Point2D) {
	id := e.scene.HitTest(p)
	clickAt := e.now()
	isDouble := id != "" && id == e.lastClickID && clickAt.Sub(e.lastClickAt) <= DoubleClickWindow
	e.lastClickAt = clickAt
	e.lastClickID = id

	if id == "" {
		e.scene.ClearSelection()
		e.notifySceneChanged()
		return
	}

	obj := e.scene.Find(id)
	if ann, ok := obj.(*scene.TextAnnotation); ok {
		if isDouble {
			e.scene.ClearSelection()
			e.beginTextEdit(&TextEdit{
				ObjectID: ann.ID,
				Anchor:   ann.Position,
				Initial:  ann.Text,
			})
			return
		}
		e.scene.SetSelection(id)
		e.dragID = id
		e.dragOffset = p.Sub(ann.Position)
		e.dragMoved = false
		e.state = stateDragging
		e.notifySceneChanged()
		return
	}

	// Strokes select but do not drag.
	e.scene.SetSelection(id)
	e.notifySceneChanged()
}

func (e *Editor) commit() {
	e.history.Commit(e.scene)
	if e.cb.Committed != nil {
		e.cb.Committed()
	}
}

func (e *Editor) notifySceneChanged() {
	if e.cb.SceneChanged != nil {
		e.cb.SceneChanged()
	}
}

// DefaultStrokeWidth returns a stroke width proportional to the base
// image resolution, so visual thickness is resolution-independent.
func DefaultStrokeWidth(imageWidth, imageHeight int) float64 {
	size := imageWidth
	if imageHeight > size {
		size = imageHeight
	}
	w := float64(size) / 120
	if w < 4 {
		w = 4
	}
	return w
}

// DefaultFontSize returns an annotation font size proportional to the
// base image resolution.
func DefaultFontSize(imageWidth, imageHeight int) float64 {
	size := imageWidth
	if imageHeight > size {
		size = imageHeight
	}
	s := float64(size) / 36
	if s < 16 {
		s = 16
	}
	return s
}
