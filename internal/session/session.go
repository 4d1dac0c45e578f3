// Package session provides markup session file handling and persistence.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"image-markup/internal/scene"
)

// Ext is the session file extension.
const Ext = ".markup"

// File represents a markup session file: one base image, its markup
// scene, and the instruction text for the generation service.
type File struct {
	Version  int       `json:"version"`
	ID       string    `json:"id"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`

	// Image paths (relative to session file)
	BaseImagePath  string   `json:"base_image,omitempty"`
	ReferencePaths []string `json:"references,omitempty"`

	Instruction string       `json:"instruction,omitempty"`
	Scene       *scene.Scene `json:"scene"`

	// User settings
	Settings Settings `json:"settings,omitempty"`
}

// Settings holds per-session tool preferences.
type Settings struct {
	StrokeColor string  `json:"stroke_color,omitempty"`
	StrokeWidth float64 `json:"stroke_width,omitempty"`
	FontSize    float64 `json:"font_size,omitempty"`
}

// New creates a new session file with default settings.
func New() *File {
	now := time.Now()
	return &File{
		Version:  1,
		ID:       uuid.NewString(),
		Created:  now,
		Modified: now,
		Scene:    scene.New(),
		Settings: Settings{
			StrokeColor: "#ef4444",
			StrokeWidth: 8,
			FontSize:    24,
		},
	}
}

// Load loads a session from a .markup file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", path, err)
	}
	if f.Version != 1 {
		return nil, fmt.Errorf("session %s: unsupported version %d", path, f.Version)
	}
	if f.Scene == nil {
		f.Scene = scene.New()
	}

	return &f, nil
}

// Save saves the session to a file.
func (f *File) Save(path string) error {
	f.Modified = time.Now()

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// SetBaseImage sets the base image path (relative to session file).
func (f *File) SetBaseImage(sessionPath, imagePath string) {
	f.BaseImagePath = relTo(sessionPath, imagePath)
	f.Modified = time.Now()
}

// AddReference records a reference image path (relative to session file).
func (f *File) AddReference(sessionPath, imagePath string) {
	f.ReferencePaths = append(f.ReferencePaths, relTo(sessionPath, imagePath))
	f.Modified = time.Now()
}

// BaseImageAbs returns the absolute path to the base image.
func (f *File) BaseImageAbs(sessionPath string) string {
	return absFrom(sessionPath, f.BaseImagePath)
}

// ReferencesAbs returns absolute paths to the reference images.
func (f *File) ReferencesAbs(sessionPath string) []string {
	if len(f.ReferencePaths) == 0 {
		return nil
	}
	out := make([]string, 0, len(f.ReferencePaths))
	for _, p := range f.ReferencePaths {
		out = append(out, absFrom(sessionPath, p))
	}
	return out
}

// DefaultPathFor returns the session file path that sits next to a base
// image: image_name.markup in the image's directory.
func DefaultPathFor(imagePath string) string {
	base := imagePath[:len(imagePath)-len(filepath.Ext(imagePath))]
	return base + Ext
}

func relTo(sessionPath, target string) string {
	rel, err := filepath.Rel(filepath.Dir(sessionPath), target)
	if err != nil {
		return target
	}
	return rel
}

func absFrom(sessionPath, stored string) string {
	if stored == "" {
		return ""
	}
	if filepath.IsAbs(stored) {
		return stored
	}
	return filepath.Join(filepath.Dir(sessionPath), stored)
}
