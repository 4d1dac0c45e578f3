// Command flatten renders a markup session to a flattened PNG without a
// display: the base image with every stroke and annotation drawn at full
// opacity, exactly what a generation request would contain.
//
// Usage: flatten -s <session.markup> [-o <output.png>]
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"fyne.io/fyne/v2/theme"

	"image-markup/internal/image"
	"image-markup/internal/render"
	"image-markup/internal/session"
)

func main() {
	sessionPath := flag.String("s", "", "Path to session file")
	outPath := flag.String("o", "", "Output PNG path (default: session name + _flat.png)")
	flag.Parse()

	if *sessionPath == "" {
		fmt.Println("Usage: flatten -s <session.markup> [-o <output.png>]")
		os.Exit(1)
	}

	f, err := session.Load(*sessionPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load session: %v\n", err)
		os.Exit(1)
	}

	basePath := f.BaseImageAbs(*sessionPath)
	if basePath == "" {
		fmt.Fprintln(os.Stderr, "Session has no base image")
		os.Exit(1)
	}

	base, err := image.Load(basePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load base image: %v\n", err)
		os.Exit(1)
	}

	r, err := render.New(theme.DefaultTextBoldItalicFont().Content())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize renderer: %v\n", err)
		os.Exit(1)
	}

	flat := r.Flatten(base.Image, f.Scene)
	data, err := render.EncodePNG(flat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode: %v\n", err)
		os.Exit(1)
	}

	out := *outPath
	if out == "" {
		stem := (*sessionPath)[:len(*sessionPath)-len(filepath.Ext(*sessionPath))]
		out = stem + "_flat.png"
	}

	if err := os.WriteFile(out, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", out, err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %s (%dx%d, %d objects)\n", out, base.Width, base.Height, f.Scene.Len())
}
