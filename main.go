// Package main provides the entry point for the Image Markup application.
package main

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/theme"

	"image-markup/internal/app"
	"image-markup/internal/generate"
	"image-markup/internal/version"
	"image-markup/ui/mainwindow"
)

const appTitle = "Image Markup"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s v%s", appTitle, version.Version)

	fyneApp := fyneapp.NewWithID("io.imagemarkup.app")
	fyneApp.Settings().SetTheme(&app.MarkupTheme{})

	var client *generate.Client
	if endpoint := os.Getenv("IMAGE_MARKUP_ENDPOINT"); endpoint != "" {
		client = generate.New(endpoint, os.Getenv("IMAGE_MARKUP_API_KEY"))
		log.Printf("Generation service: %s", endpoint)
	} else {
		log.Println("IMAGE_MARKUP_ENDPOINT not set; generation disabled")
	}

	state, err := app.NewState(theme.DefaultTextBoldItalicFont().Content(), client)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer state.Close()

	// Generation results and session reloads arrive on background
	// goroutines; route them onto the Fyne event loop before they touch
	// the scene.
	state.SetDispatcher(fyne.Do)

	win := mainwindow.New(fyneApp, state)

	// Handle command line arguments
	if len(os.Args) > 1 {
		path := os.Args[1]
		var err error
		if strings.EqualFold(filepath.Ext(path), ".markup") {
			err = state.LoadSession(path)
		} else {
			err = state.LoadBaseImage(path)
		}
		if err != nil {
			log.Printf("Failed to open %s: %v", path, err)
		}
	}

	win.ShowAndRun()
}
