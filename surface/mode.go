package surface

import (
	"github.com/docmark/docmark/annot"
	"github.com/docmark/docmark/canvas"
)

// Mode selects the editor-wide interaction policy.
type Mode string

const (
	// ModeEdit is authoring: non-locked objects are movable, resizable
	// and deletable.
	ModeEdit Mode = "edit"
	// ModeFill is completion: only field-bearing and signature objects
	// respond, and interaction opens a value editor or toggles state.
	ModeFill Mode = "fill"
)

// PolicyFor computes the interactivity of one object. It is a pure
// function of its arguments and idempotent by construction; switching
// modes re-applies it to every object on every page.
func PolicyFor(kind annot.Kind, locked bool, mode Mode, tool Tool) canvas.Interactivity {
	switch mode {
	case ModeFill:
		if kind.IsField() || kind == annot.KindSignature {
			// Locked fields stay selectable for inspection but the
			// surface refuses to open their editors.
			return canvas.Interactivity{Selectable: true}
		}
		return canvas.Interactivity{}
	default: // ModeEdit
		if tool != ToolSelect {
			// An active placement or drag tool owns the pointer;
			// existing objects must not swallow its events.
			return canvas.Interactivity{}
		}
		if locked {
			return canvas.Interactivity{Selectable: true}
		}
		return canvas.Interactivity{Selectable: true, Movable: true, Resizable: true}
	}
}
