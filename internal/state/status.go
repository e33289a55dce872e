// SPDX-License-Identifier: MPL-2.0

package state

import "fmt"

// SelectEnvironmentFileCommand is the command bound to the status item.
const SelectEnvironmentFileCommand = "nixenv.select-environment-file"

// Glyph placeholders understood by Renderer.
const (
	GlyphNix   = "$(distro-nix)"
	GlyphAlert = "$(alert)"
	GlyphSync  = "$(sync~spin)"
)

// Background values of a Status.
const (
	BackgroundNone    Background = ""
	BackgroundWarning Background = "warning"
	BackgroundError   Background = "error"
)

type (
	// Background is the status item background styling.
	Background string

	// Status is the presentation of a Snapshot.
	Status struct {
		Visible bool `json:"visible"`
		// Glyphs are the placeholders preceding Label, in order.
		Glyphs     []string   `json:"glyphs,omitempty"`
		Label      string     `json:"label,omitempty"`
		Tooltip    string     `json:"tooltip,omitempty"`
		Background Background `json:"background,omitempty"`
		Command    string     `json:"command,omitempty"`
	}
)

// Text joins the glyph placeholders and the label.
func (s Status) Text() string {
	text := ""
	for _, g := range s.Glyphs {
		text += g + " "
	}
	return text + s.Label
}

// Present maps a snapshot to its status. It has no side effects.
func Present(st Snapshot) Status {
	if !st.Enabled {
		return Status{}
	}

	status := Status{Visible: true, Command: SelectEnvironmentFileCommand}
	switch {
	case st.LastEvaluationFinishedWithError:
		status.Background = BackgroundError
	case st.PendingWindowReload:
		status.Background = BackgroundWarning
	}

	file := st.EnvironmentFile
	switch {
	case file == "":
		status.Glyphs = []string{GlyphNix}
		status.Label = "file not selected"
		status.Tooltip = "Click to select *.nix environment file"
	case st.Applied:
		status.Glyphs = []string{GlyphNix}
		status.Label = file
		status.Tooltip = fmt.Sprintf("Environment loaded from %s", file)
		if st.PendingWindowReload {
			status.Tooltip += ", reload required to apply changes"
		}
	case st.LastEvaluationFinishedWithError:
		status.Glyphs = []string{GlyphNix, GlyphAlert}
		status.Label = file
		status.Tooltip = fmt.Sprintf("Error loading %s file", file)
	default:
		status.Glyphs = []string{GlyphNix, GlyphSync}
		status.Label = file
		status.Tooltip = fmt.Sprintf("Loading environment from %s", file)
	}
	return status
}
