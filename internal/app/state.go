// Package app provides application lifecycle management, shared state, and events.
package app

import (
	"bytes"
	"context"
	"fmt"
	goimage "image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"image-markup/internal/editor"
	"image-markup/internal/generate"
	"image-markup/internal/image"
	"image-markup/internal/render"
	"image-markup/internal/session"
)

// EventType identifies different application events.
type EventType int

const (
	EventSessionLoaded EventType = iota
	EventSessionSaved
	EventImageLoaded
	EventSceneChanged
	EventToolChanged
	EventEditStarted
	EventModified
	EventGenerationStarted
	EventGenerationFinished
	EventGenerationFailed
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// State holds the application state: the loaded base image, the markup
// editor, the session file, and the generation client.
type State struct {
	mu sync.RWMutex

	// Session
	SessionPath string
	Modified    bool

	// Images
	Base       *image.Base
	References []string

	// Edit instruction for the generation service
	Instruction string

	Editor   *editor.Editor
	Renderer *render.Renderer

	genClient  *generate.Client
	generating bool
	genCancel  context.CancelFunc

	watcher  *session.Watcher
	lastSave time.Time

	// dispatch runs a function on the UI thread. Background goroutines
	// (generation, file watcher) deliver their results through it; the
	// scene and editor are only ever touched on the UI thread.
	dispatch func(func())

	// Event listeners
	listeners map[EventType]map[int]EventListener
	nextSub   int
}

// NewState creates a new application state. fontData is the TTF used to
// render annotations; genClient may be nil when no service is configured.
func NewState(fontData []byte, genClient *generate.Client) (*State, error) {
	r, err := render.New(fontData)
	if err != nil {
		return nil, err
	}

	s := &State{
		Renderer:  r,
		genClient: genClient,
		dispatch:  func(fn func()) { fn() },
		listeners: make(map[EventType]map[int]EventListener),
	}
	s.Editor = editor.New(editor.Callbacks{
		SceneChanged: func() { s.Emit(EventSceneChanged, nil) },
		Committed:    func() { s.onCommitted() },
		ToolChanged:  func(t editor.Tool) { s.Emit(EventToolChanged, t) },
		EditStarted:  func(te editor.TextEdit) { s.Emit(EventEditStarted, te) },
	})
	return s, nil
}

// SetDispatcher routes background-goroutine deliveries onto the UI
// thread. The default calls functions inline; the application installs
// the toolkit's scheduler (fyne.Do) before any work starts.
func (s *State) SetDispatcher(d func(func())) {
	s.mu.Lock()
	s.dispatch = d
	s.mu.Unlock()
}

// On registers an event listener and returns a function that removes it.
func (s *State) On(event EventType, listener EventListener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listeners[event] == nil {
		s.listeners[event] = make(map[int]EventListener)
	}
	id := s.nextSub
	s.nextSub++
	s.listeners[event][id] = listener
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners[event], id)
	}
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := make([]EventListener, 0, len(s.listeners[event]))
	for _, l := range s.listeners[event] {
		listeners = append(listeners, l)
	}
	s.mu.RUnlock()

	for _, l := range listeners {
		l(data)
	}
}

// SetModified marks the session as modified and emits an event.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	s.Modified = modified
	s.mu.Unlock()
	s.Emit(EventModified, modified)
}

// SetInstruction stores the edit instruction text.
func (s *State) SetInstruction(text string) {
	s.mu.Lock()
	s.Instruction = text
	s.mu.Unlock()
	s.SetModified(true)
}

// LoadBaseImage loads a base image and starts a fresh markup scene and
// session for it. Tool defaults scale with the image resolution.
func (s *State) LoadBaseImage(path string) error {
	base, err := image.Load(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.Base = base
	s.SessionPath = session.DefaultPathFor(path)
	s.mu.Unlock()

	s.Editor.LoadScene(nil)
	s.Editor.SetStrokeWidth(editor.DefaultStrokeWidth(base.Width, base.Height))
	s.Editor.SetFontSize(editor.DefaultFontSize(base.Width, base.Height))

	s.SetModified(true)
	s.Emit(EventImageLoaded, base)
	return nil
}

// AddReference records a reference image path for generation requests.
func (s *State) AddReference(path string) {
	s.mu.Lock()
	s.References = append(s.References, path)
	s.mu.Unlock()
	s.SetModified(true)
}

// LoadSession loads a session file and restores its base image, scene,
// instruction, and tool settings.
func (s *State) LoadSession(path string) error {
	f, err := session.Load(path)
	if err != nil {
		return err
	}

	if p := f.BaseImageAbs(path); p != "" {
		base, err := image.Load(p)
		if err != nil {
			return fmt.Errorf("load base image: %w", err)
		}
		s.mu.Lock()
		s.Base = base
		s.mu.Unlock()
	}

	s.mu.Lock()
	s.SessionPath = path
	s.References = f.ReferencesAbs(path)
	s.Instruction = f.Instruction
	s.Modified = false
	s.mu.Unlock()

	s.Editor.LoadScene(f.Scene)
	if f.Settings.StrokeColor != "" {
		s.Editor.SetStrokeColor(f.Settings.StrokeColor)
	}
	if f.Settings.StrokeWidth > 0 {
		s.Editor.SetStrokeWidth(f.Settings.StrokeWidth)
	}
	if f.Settings.FontSize > 0 {
		s.Editor.SetFontSize(f.Settings.FontSize)
	}

	s.Emit(EventSessionLoaded, path)
	return nil
}

// SaveSession writes the current session to its path. No-op when no base
// image has been loaded yet.
func (s *State) SaveSession() error {
	s.mu.RLock()
	path := s.SessionPath
	base := s.Base
	refs := s.References
	instruction := s.Instruction
	s.mu.RUnlock()

	if path == "" || base == nil {
		return nil
	}

	f := session.New()
	f.Instruction = instruction
	f.Scene = s.Editor.Scene().Clone()
	f.SetBaseImage(path, base.Path)
	for _, r := range refs {
		f.AddReference(path, r)
	}
	f.Settings = session.Settings{
		StrokeColor: s.Editor.StrokeColor(),
		StrokeWidth: s.Editor.StrokeWidth(),
		FontSize:    s.Editor.FontSize(),
	}

	if err := f.Save(path); err != nil {
		return err
	}

	s.mu.Lock()
	s.Modified = false
	s.lastSave = time.Now()
	s.mu.Unlock()

	s.Emit(EventSessionSaved, path)
	return nil
}

// onCommitted persists the session after every history commit so a crash
// loses at most the in-progress gesture.
func (s *State) onCommitted() {
	if err := s.SaveSession(); err != nil {
		log.Printf("app: autosave failed: %v", err)
		s.SetModified(true)
	}
}

// Generating reports whether a generation request is in flight.
func (s *State) Generating() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generating
}

// CancelGeneration aborts the in-flight generation request, if any.
func (s *State) CancelGeneration() {
	s.mu.Lock()
	cancel := s.genCancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// StartGeneration flattens the scene over the base image and submits it
// with the instruction text. Only one request runs at a time; a second
// call while one is in flight is refused. Completion is reported through
// EventGenerationFinished or EventGenerationFailed, delivered through
// the dispatcher so listeners run on the UI thread.
func (s *State) StartGeneration() error {
	s.mu.Lock()
	if s.generating {
		s.mu.Unlock()
		return fmt.Errorf("generation already in progress")
	}
	if s.genClient == nil {
		s.mu.Unlock()
		return fmt.Errorf("no generation service configured")
	}
	base := s.Base
	refs := s.References
	instruction := s.Instruction
	if base == nil {
		s.mu.Unlock()
		return fmt.Errorf("no base image loaded")
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.generating = true
	s.genCancel = cancel
	s.mu.Unlock()

	flat := s.Renderer.Flatten(base.Image, s.Editor.Scene())
	var buf bytes.Buffer
	if err := png.Encode(&buf, flat); err != nil {
		s.finishGeneration()
		return err
	}

	refData := make([][]byte, 0, len(refs))
	for _, p := range refs {
		data, err := os.ReadFile(p)
		if err != nil {
			s.finishGeneration()
			return fmt.Errorf("read reference %s: %w", p, err)
		}
		refData = append(refData, data)
	}

	s.Emit(EventGenerationStarted, nil)

	go func() {
		out, err := s.genClient.Generate(ctx, generate.Request{
			Image:       buf.Bytes(),
			References:  refData,
			Instruction: instruction,
		})
		s.dispatcher()(func() {
			s.finishGeneration()
			if err != nil {
				log.Printf("app: generation failed: %v", err)
				s.Emit(EventGenerationFailed, err)
				return
			}
			s.Emit(EventGenerationFinished, out)
		})
	}()
	return nil
}

func (s *State) dispatcher() func(func()) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dispatch
}

func (s *State) finishGeneration() {
	s.mu.Lock()
	s.generating = false
	s.genCancel = nil
	s.mu.Unlock()
}

// ApplyGeneratedImage replaces the base image with the service result,
// writes it next to the original, and clears the markup scene: the edits
// the scene asked for are now baked into the pixels.
func (s *State) ApplyGeneratedImage(data []byte) error {
	img, err := image.Decode(data)
	if err != nil {
		return fmt.Errorf("decode generated image: %w", err)
	}

	s.mu.RLock()
	base := s.Base
	s.mu.RUnlock()
	if base == nil {
		return fmt.Errorf("no base image loaded")
	}

	outPath := generatedPathFor(base.Path)
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("write generated image: %w", err)
	}

	bounds := img.Bounds()
	s.mu.Lock()
	s.Base = &image.Base{
		Path:   outPath,
		Image:  img,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}
	newBase := s.Base
	s.mu.Unlock()

	s.Editor.Clear()
	s.Emit(EventImageLoaded, newBase)
	return nil
}

// Flattened returns the current composite of base image and markup, or
// nil when no base image is loaded.
func (s *State) Flattened() goimage.Image {
	s.mu.RLock()
	base := s.Base
	s.mu.RUnlock()
	if base == nil {
		return nil
	}
	return s.Renderer.Flatten(base.Image, s.Editor.Scene())
}

// selfSaveWindow is how long after our own SaveSession a watcher event
// for the session file is attributed to that save rather than to an
// external writer.
const selfSaveWindow = time.Second

// WatchSession watches the session file for external writes and reloads
// the session when one happens. Our own autosaves are filtered out; the
// reload itself runs through the dispatcher on the UI thread and is
// announced by EventSessionLoaded.
func (s *State) WatchSession() error {
	s.mu.Lock()
	if s.watcher != nil {
		s.watcher.Close()
		s.watcher = nil
	}
	path := s.SessionPath
	s.mu.Unlock()
	if path == "" {
		return fmt.Errorf("no session path set")
	}

	w, err := session.Watch(path, func(p string) {
		s.mu.RLock()
		last := s.lastSave
		s.mu.RUnlock()
		if time.Since(last) < selfSaveWindow {
			return
		}
		s.dispatcher()(func() {
			if err := s.LoadSession(p); err != nil {
				log.Printf("app: session reload of %s failed: %v", p, err)
			}
		})
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.watcher = w
	s.mu.Unlock()
	return nil
}

// Close releases background resources.
func (s *State) Close() {
	s.CancelGeneration()
	s.mu.Lock()
	w := s.watcher
	s.watcher = nil
	s.mu.Unlock()
	if w != nil {
		w.Close()
	}
}

// generatedPathFor returns the output path for a generation result,
// image_name.generated.png next to the input.
func generatedPathFor(basePath string) string {
	stem := basePath[:len(basePath)-len(filepath.Ext(basePath))]
	return stem + ".generated.png"
}
