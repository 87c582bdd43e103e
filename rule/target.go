// Package rule stores declarative rules and executes them every frame:
// each rule names a selector, an optional guard expression over the
// matched set, and a list of mutations applied to the entities that pass
// the guard.
package rule

import (
	"fmt"
	"strings"

	"github.com/plus3/sigil/entity"
)

// TargetKind discriminates the closed set of writable mutation targets.
type TargetKind uint8

const (
	// TargetProperty writes one scalar property by key.
	TargetProperty TargetKind = iota
	// TargetTagAdd adds a tag named by the mutation value.
	TargetTagAdd
	// TargetTagRemove removes a tag named by the mutation value.
	TargetTagRemove
	// TargetId renames the entity's id.
	TargetId
	// TargetPosition overwrites transform.position with an {x,y,z} object.
	TargetPosition
	// TargetRotation overwrites transform.rotation with an {x,y,z,w} object.
	TargetRotation
	// TargetScale overwrites transform.scale with an {x,y,z} object.
	TargetScale
	// TargetParent reparents to the first entity matched by the selector
	// text in the mutation value.
	TargetParent
	// TargetLayout writes one layout scalar or enum field by key.
	TargetLayout
)

// Target names exactly one writable behavior field. Parsed eagerly at
// load; never re-parsed per frame.
type Target struct {
	Kind TargetKind
	Key  string
}

func (t Target) String() string {
	switch t.Kind {
	case TargetProperty:
		return "properties." + t.Key
	case TargetTagAdd:
		return "tags.add"
	case TargetTagRemove:
		return "tags.remove"
	case TargetId:
		return "id"
	case TargetPosition:
		return "transform.position"
	case TargetRotation:
		return "transform.rotation"
	case TargetScale:
		return "transform.scale"
	case TargetParent:
		return "parent"
	case TargetLayout:
		return "layout." + t.Key
	}
	return "<invalid>"
}

// TargetError reports an unrecognized or malformed target path. Read-only
// and computed fields are simply not in the recognized set, so targeting
// one reads the same as a typo.
type TargetError struct {
	Path string
}

func (e *TargetError) Error() string {
	return fmt.Sprintf("unrecognized target %q, expected one of: "+
		"properties.<key>, tags.add, tags.remove, id, transform.position, "+
		"transform.rotation, transform.scale, parent, layout.<field>", e.Path)
}

// ParseTarget resolves a dotted target path into its descriptor.
func ParseTarget(path string) (Target, error) {
	head, rest, _ := strings.Cut(path, ".")
	switch head {
	case "properties":
		if rest != "" && !strings.Contains(rest, ".") {
			return Target{Kind: TargetProperty, Key: rest}, nil
		}
	case "tags":
		switch rest {
		case "add":
			return Target{Kind: TargetTagAdd}, nil
		case "remove":
			return Target{Kind: TargetTagRemove}, nil
		}
	case "id":
		if rest == "" {
			return Target{Kind: TargetId}, nil
		}
	case "transform":
		switch rest {
		case "position":
			return Target{Kind: TargetPosition}, nil
		case "rotation":
			return Target{Kind: TargetRotation}, nil
		case "scale":
			return Target{Kind: TargetScale}, nil
		}
	case "parent":
		if rest == "" {
			return Target{Kind: TargetParent}, nil
		}
	case "layout":
		if _, ok := layoutFields[rest]; ok {
			return Target{Kind: TargetLayout, Key: rest}, nil
		}
	}
	return Target{}, &TargetError{Path: path}
}

// layoutField validates and writes one Layout field. Scalar fields have a
// nil enum set; enum fields accept only their listed members.
type layoutField struct {
	enum []string
	setF func(*entity.Layout, float64)
	setS func(*entity.Layout, string)
}

func scalarField(set func(*entity.Layout, float64)) layoutField {
	return layoutField{setF: set}
}

func enumField(set func(*entity.Layout, string), members ...string) layoutField {
	return layoutField{enum: members, setS: set}
}

var layoutFields = map[string]layoutField{
	"width":         scalarField(func(l *entity.Layout, v float64) { l.Width = v }),
	"height":        scalarField(func(l *entity.Layout, v float64) { l.Height = v }),
	"minWidth":      scalarField(func(l *entity.Layout, v float64) { l.MinWidth = v }),
	"minHeight":     scalarField(func(l *entity.Layout, v float64) { l.MinHeight = v }),
	"maxWidth":      scalarField(func(l *entity.Layout, v float64) { l.MaxWidth = v }),
	"maxHeight":     scalarField(func(l *entity.Layout, v float64) { l.MaxHeight = v }),
	"flexGrow":      scalarField(func(l *entity.Layout, v float64) { l.FlexGrow = v }),
	"flexShrink":    scalarField(func(l *entity.Layout, v float64) { l.FlexShrink = v }),
	"flexBasis":     scalarField(func(l *entity.Layout, v float64) { l.FlexBasis = v }),
	"gap":           scalarField(func(l *entity.Layout, v float64) { l.Gap = v }),
	"paddingLeft":   scalarField(func(l *entity.Layout, v float64) { l.PaddingLeft = v }),
	"paddingRight":  scalarField(func(l *entity.Layout, v float64) { l.PaddingRight = v }),
	"paddingTop":    scalarField(func(l *entity.Layout, v float64) { l.PaddingTop = v }),
	"paddingBottom": scalarField(func(l *entity.Layout, v float64) { l.PaddingBottom = v }),
	"marginLeft":    scalarField(func(l *entity.Layout, v float64) { l.MarginLeft = v }),
	"marginRight":   scalarField(func(l *entity.Layout, v float64) { l.MarginRight = v }),
	"marginTop":     scalarField(func(l *entity.Layout, v float64) { l.MarginTop = v }),
	"marginBottom":  scalarField(func(l *entity.Layout, v float64) { l.MarginBottom = v }),
	"direction": enumField(func(l *entity.Layout, v string) { l.Direction = entity.LayoutDirection(v) },
		string(entity.DirectionRow), string(entity.DirectionColumn)),
	"justify": enumField(func(l *entity.Layout, v string) { l.Justify = entity.LayoutJustify(v) },
		string(entity.JustifyStart), string(entity.JustifyCenter), string(entity.JustifyEnd), string(entity.JustifySpaceBetween)),
	"align": enumField(func(l *entity.Layout, v string) { l.Align = entity.LayoutAlign(v) },
		string(entity.AlignStart), string(entity.AlignCenter), string(entity.AlignEnd), string(entity.AlignStretch)),
	"display": enumField(func(l *entity.Layout, v string) { l.Display = entity.LayoutDisplay(v) },
		string(entity.DisplayFlex), string(entity.DisplayNone)),
}
