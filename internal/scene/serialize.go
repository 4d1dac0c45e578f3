package scene

import (
	"encoding/json"
	"fmt"
)

// objectEnvelope is the wire form of one scene object: an explicit kind
// tag plus exactly one populated variant.
type objectEnvelope struct {
	Kind   Kind            `json:"kind"`
	Stroke *Stroke         `json:"stroke,omitempty"`
	Text   *TextAnnotation `json:"text,omitempty"`
}

// sceneFile is the wire form of a scene.
type sceneFile struct {
	Objects []objectEnvelope `json:"objects"`
}

// MarshalJSON serializes the scene to a plain-data form. Cached text
// measurements are derived state and are not written; they are recomputed
// on the first render after a load.
func (s *Scene) MarshalJSON() ([]byte, error) {
	file := sceneFile{Objects: make([]objectEnvelope, 0, len(s.objects))}
	for _, o := range s.objects {
		switch v := o.(type) {
		case *Stroke:
			file.Objects = append(file.Objects, objectEnvelope{Kind: KindStroke, Stroke: v})
		case *TextAnnotation:
			file.Objects = append(file.Objects, objectEnvelope{Kind: KindText, Text: v})
		default:
			return nil, fmt.Errorf("unknown object kind %q", o.ObjectKind())
		}
	}
	return json.Marshal(file)
}

// UnmarshalJSON restores the scene from its wire form, replacing any
// current contents.
func (s *Scene) UnmarshalJSON(data []byte) error {
	var file sceneFile
	if err := json.Unmarshal(data, &file); err != nil {
		return err
	}
	objects := make([]Object, 0, len(file.Objects))
	for i, env := range file.Objects {
		switch env.Kind {
		case KindStroke:
			if env.Stroke == nil {
				return fmt.Errorf("object %d: stroke envelope without stroke body", i)
			}
			objects = append(objects, env.Stroke)
		case KindText:
			if env.Text == nil {
				return fmt.Errorf("object %d: text envelope without text body", i)
			}
			objects = append(objects, env.Text)
		default:
			return fmt.Errorf("object %d: unknown kind %q", i, env.Kind)
		}
	}
	s.objects = objects
	return nil
}
