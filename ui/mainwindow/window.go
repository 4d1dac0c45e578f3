// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"log"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"image-markup/internal/app"
	"image-markup/internal/editor"
	"image-markup/internal/render"
	"image-markup/internal/version"
	"image-markup/ui/canvas"
)

const (
	prefKeyLastDir   = "lastDirectory"
	prefKeyLastImage = "lastImage"
)

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tiff", ".tif", ".webp"}

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app    fyne.App
	state  *app.State
	canvas *canvas.MarkupCanvas

	statusBar   *widget.Label
	instruction *widget.Entry
	generateBtn *widget.Button
	undoBtn     *widget.Button
	redoBtn     *widget.Button
	widthSlider *widget.Slider

	toolButtons map[editor.Tool]*widget.Button
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State) *MainWindow {
	win := fyneApp.NewWindow("Image Markup")

	mw := &MainWindow{
		Window:      win,
		app:         fyneApp,
		state:       state,
		toolButtons: make(map[editor.Tool]*widget.Button),
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()
	mw.setupKeyboard()
	mw.restoreLastImage()

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewMarkupCanvas(mw.state)
	mw.canvas.SetFitToWindow(true)

	mw.statusBar = widget.NewLabel("Ready")

	mw.instruction = widget.NewEntry()
	mw.instruction.SetPlaceHolder("Describe the edit, e.g. \"remove the highlighted area\"")
	mw.instruction.OnChanged = func(text string) {
		mw.state.SetInstruction(text)
	}

	mw.generateBtn = widget.NewButton("Generate", mw.onGenerate)

	toolbar := mw.createToolbar()

	canvasArea := container.NewBorder(
		toolbar,
		nil, nil, nil,
		mw.canvas.Container(),
	)

	bottom := container.NewBorder(
		nil, nil,
		nil,
		mw.generateBtn,
		mw.instruction,
	)

	content := container.NewBorder(
		nil,
		container.NewVBox(bottom, container.NewPadded(mw.statusBar)),
		nil, nil,
		canvasArea,
	)

	mw.SetContent(content)
	mw.Resize(fyne.NewSize(1200, 800))
}

// createToolbar creates the tool, color, and history controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	tools := []struct {
		tool  editor.Tool
		label string
	}{
		{editor.ToolSelect, "Select"},
		{editor.ToolHighlight, "Highlight"},
		{editor.ToolAnnotate, "Annotate"},
		{editor.ToolErase, "Erase"},
	}

	toolBox := container.NewHBox()
	for _, t := range tools {
		tool := t.tool
		btn := widget.NewButton(t.label, func() {
			if !mw.state.Editor.SetTool(tool) {
				mw.updateStatus("Finish the current gesture first")
				return
			}
			mw.highlightActiveTool()
		})
		mw.toolButtons[tool] = btn
		toolBox.Add(btn)
	}
	mw.highlightActiveTool()

	colors := []struct {
		hex   string
		label string
	}{
		{"#ef4444", "Red"},
		{"#22c55e", "Green"},
		{"#3b82f6", "Blue"},
		{"#eab308", "Yellow"},
		{"#000000", "Black"},
		{"#ffffff", "White"},
	}
	colorBox := container.NewHBox()
	for _, c := range colors {
		hex := c.hex
		colorBox.Add(widget.NewButton(c.label, func() {
			mw.state.Editor.SetStrokeColor(hex)
		}))
	}

	mw.widthSlider = widget.NewSlider(1, 64)
	mw.widthSlider.Value = mw.state.Editor.StrokeWidth()
	mw.widthSlider.OnChanged = func(v float64) {
		mw.state.Editor.SetStrokeWidth(v)
	}

	mw.undoBtn = widget.NewButton("Undo", mw.onUndo)
	mw.redoBtn = widget.NewButton("Redo", mw.onRedo)
	mw.updateHistoryButtons()

	zoomBox := container.NewHBox(
		widget.NewButton("-", mw.canvas.ZoomOut),
		widget.NewButton("+", mw.canvas.ZoomIn),
		widget.NewButton("Fit", func() { mw.canvas.SetFitToWindow(true) }),
		widget.NewButton("1:1", func() {
			mw.canvas.SetFitToWindow(false)
			mw.canvas.SetZoom(1.0)
		}),
	)

	return container.NewHBox(
		toolBox,
		widget.NewSeparator(),
		colorBox,
		widget.NewLabel("Width:"),
		container.NewGridWrap(fyne.NewSize(120, 36), mw.widthSlider),
		widget.NewSeparator(),
		mw.undoBtn,
		mw.redoBtn,
		widget.NewButton("Clear", mw.onClear),
		widget.NewSeparator(),
		zoomBox,
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Image...", mw.onOpenImage),
		fyne.NewMenuItem("Open Session...", mw.onOpenSession),
		fyne.NewMenuItem("Add Reference Image...", mw.onAddReference),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Session", mw.onSaveSession),
		fyne.NewMenuItem("Export Flattened PNG...", mw.onExportFlattened),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.app.Quit() }),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo", mw.onUndo),
		fyne.NewMenuItem("Redo", mw.onRedo),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Delete Selected", mw.state.Editor.KeyDelete),
		fyne.NewMenuItem("Clear Markup", mw.onClear),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.canvas.ZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.canvas.ZoomOut),
		fyne.NewMenuItem("Fit to Window", func() { mw.canvas.SetFitToWindow(true) }),
		fyne.NewMenuItem("Actual Size", func() {
			mw.canvas.SetFitToWindow(false)
			mw.canvas.SetZoom(1.0)
		}),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, viewMenu, helpMenu))
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventImageLoaded, func(data interface{}) {
		mw.canvas.Refresh()
		if mw.state.Base != nil {
			mw.SetTitle("Image Markup - " + filepath.Base(mw.state.Base.Path))
			mw.updateStatus(fmt.Sprintf("Image loaded (%dx%d)",
				mw.state.Base.Width, mw.state.Base.Height))
		}
		mw.watchSession()
	})

	mw.state.On(app.EventSessionLoaded, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.updateStatus("Session loaded: " + path)
		}
		mw.instruction.SetText(mw.state.Instruction)
		mw.widthSlider.SetValue(mw.state.Editor.StrokeWidth())
		mw.updateHistoryButtons()
		mw.watchSession()
	})

	mw.state.On(app.EventSceneChanged, func(data interface{}) {
		mw.updateHistoryButtons()
	})

	mw.state.On(app.EventEditStarted, func(data interface{}) {
		if edit, ok := data.(editor.TextEdit); ok {
			mw.showAnnotationEntry(edit)
		}
	})

	mw.state.On(app.EventGenerationStarted, func(data interface{}) {
		mw.generateBtn.Disable()
		mw.updateStatus("Generating...")
	})

	mw.state.On(app.EventGenerationFinished, func(data interface{}) {
		result, ok := data.([]byte)
		if !ok {
			return
		}
		mw.generateBtn.Enable()
		if err := mw.state.ApplyGeneratedImage(result); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.updateStatus("Generation complete")
	})

	mw.state.On(app.EventGenerationFailed, func(data interface{}) {
		mw.generateBtn.Enable()
		if err, ok := data.(error); ok {
			dialog.ShowError(err, mw.Window)
		}
		mw.updateStatus("Generation failed")
	})
}

// watchSession re-arms the session file watcher for the current session
// path so external edits to the file reload into the editor.
func (mw *MainWindow) watchSession() {
	if err := mw.state.WatchSession(); err != nil {
		log.Printf("mainwindow: session watch unavailable: %v", err)
	}
}

// setupKeyboard wires delete and undo/redo shortcuts.
func (mw *MainWindow) setupKeyboard() {
	mw.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyDelete, fyne.KeyBackspace:
			mw.state.Editor.KeyDelete()
		case fyne.KeyEscape:
			mw.state.Editor.CancelText()
		}
	})

	ctrlZ := &desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierControl}
	mw.Canvas().AddShortcut(ctrlZ, func(fyne.Shortcut) {
		mw.onUndo()
	})
	ctrlY := &desktop.CustomShortcut{KeyName: fyne.KeyY, Modifier: fyne.KeyModifierControl}
	mw.Canvas().AddShortcut(ctrlY, func(fyne.Shortcut) {
		mw.onRedo()
	})
}

// highlightActiveTool marks the active tool button with high importance.
func (mw *MainWindow) highlightActiveTool() {
	active := mw.state.Editor.Tool()
	for tool, btn := range mw.toolButtons {
		if tool == active {
			btn.Importance = widget.HighImportance
		} else {
			btn.Importance = widget.MediumImportance
		}
		btn.Refresh()
	}
}

// updateHistoryButtons syncs the undo/redo buttons to history state.
func (mw *MainWindow) updateHistoryButtons() {
	if mw.undoBtn == nil || mw.redoBtn == nil {
		return
	}
	if mw.state.Editor.CanUndo() {
		mw.undoBtn.Enable()
	} else {
		mw.undoBtn.Disable()
	}
	if mw.state.Editor.CanRedo() {
		mw.redoBtn.Enable()
	} else {
		mw.redoBtn.Disable()
	}
}

// showAnnotationEntry presents the text entry for a new or existing
// annotation and routes the outcome to the editor.
func (mw *MainWindow) showAnnotationEntry(edit editor.TextEdit) {
	entry := widget.NewEntry()
	entry.SetText(edit.Initial)

	d := dialog.NewForm("Annotation", "OK", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Text", entry)},
		func(confirmed bool) {
			if confirmed {
				mw.state.Editor.CommitText(entry.Text)
			} else {
				mw.state.Editor.CancelText()
			}
			mw.canvas.Refresh()
		}, mw.Window)
	d.Resize(fyne.NewSize(400, 120))
	d.Show()
	mw.Canvas().Focus(entry)
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.app.Preferences().String(prefKeyLastDir)
	if path == "" {
		return nil
	}
	uri := storage.NewFileURI(path)
	listable, err := storage.ListerForURI(uri)
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.app.Preferences().SetString(prefKeyLastDir, filepath.Dir(filePath))
}

// restoreLastImage reloads the previously open image, preferring its
// session file when one exists next to it.
func (mw *MainWindow) restoreLastImage() {
	path := mw.app.Preferences().String(prefKeyLastImage)
	if path == "" {
		return
	}
	if err := mw.openImage(path); err != nil {
		mw.updateStatus("Could not restore " + filepath.Base(path))
		return
	}
	mw.state.SetModified(false)
}

// openImage loads an image, or its existing session when one is found.
func (mw *MainWindow) openImage(path string) error {
	sessionPath := sessionPathFor(path)
	if sessionPath != "" {
		if err := mw.state.LoadSession(sessionPath); err == nil {
			return nil
		}
	}
	return mw.state.LoadBaseImage(path)
}

// sessionPathFor returns the session file next to an image, or "" when
// none exists.
func sessionPathFor(imagePath string) string {
	p := imagePath[:len(imagePath)-len(filepath.Ext(imagePath))] + ".markup"
	ok, err := storage.Exists(storage.NewFileURI(p))
	if err != nil || !ok {
		return ""
	}
	return p
}

// Menu and toolbar action handlers

func (mw *MainWindow) onOpenImage() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		if err := mw.openImage(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.app.Preferences().SetString(prefKeyLastImage, path)
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter(imageExtensions))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onOpenSession() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		if err := mw.state.LoadSession(path); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".markup"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onAddReference() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		mw.state.AddReference(path)
		mw.updateStatus("Reference added: " + filepath.Base(path))
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter(imageExtensions))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onSaveSession() {
	if err := mw.state.SaveSession(); err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.updateStatus("Session saved")
}

func (mw *MainWindow) onExportFlattened() {
	flat := mw.state.Flattened()
	if flat == nil {
		mw.updateStatus("No image loaded")
		return
	}
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		defer writer.Close()
		data, err := render.EncodePNG(flat)
		if err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		if _, err := writer.Write(data); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.updateStatus("Exported " + writer.URI().Name())
	}, mw.Window)
	fd.SetFileName("flattened.png")
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onUndo() {
	mw.state.Editor.Undo()
	mw.updateHistoryButtons()
	mw.canvas.Refresh()
}

func (mw *MainWindow) onRedo() {
	mw.state.Editor.Redo()
	mw.updateHistoryButtons()
	mw.canvas.Refresh()
}

func (mw *MainWindow) onClear() {
	dialog.ShowConfirm("Clear Markup", "Remove all strokes and annotations?",
		func(confirmed bool) {
			if confirmed {
				mw.state.Editor.Clear()
				mw.canvas.Refresh()
			}
		}, mw.Window)
}

func (mw *MainWindow) onGenerate() {
	if mw.state.Instruction == "" {
		mw.updateStatus("Enter an instruction first")
		return
	}
	if err := mw.state.StartGeneration(); err != nil {
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About Image Markup",
		fmt.Sprintf("Image Markup v%s\n\n"+
			"Draw highlights and annotations on an image and send them\n"+
			"to a generative editing service.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
