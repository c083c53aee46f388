// Package board derives the Kanban pipeline presentation model from stage
// descriptors: ordered columns for the board and single-stage badges for
// list and detail views.
package board

import "fieldregistry-server/internal/registry/domain"

// Palette is the token bundle for one symbolic stage color. Tokens are
// presentation keys for the consuming UI, not pixel values.
type Palette struct {
	Background string
	Border     string
	Badge      string
	Header     string
}

var palettes = map[string]Palette{
	"gray":   {Background: "bg-gray-50", Border: "border-gray-200", Badge: "badge-gray", Header: "header-gray"},
	"blue":   {Background: "bg-blue-50", Border: "border-blue-200", Badge: "badge-blue", Header: "header-blue"},
	"green":  {Background: "bg-green-50", Border: "border-green-200", Badge: "badge-green", Header: "header-green"},
	"yellow": {Background: "bg-yellow-50", Border: "border-yellow-200", Badge: "badge-yellow", Header: "header-yellow"},
	"red":    {Background: "bg-red-50", Border: "border-red-200", Badge: "badge-red", Header: "header-red"},
	"purple": {Background: "bg-purple-50", Border: "border-purple-200", Badge: "badge-purple", Header: "header-purple"},
	"pink":   {Background: "bg-pink-50", Border: "border-pink-200", Badge: "badge-pink", Header: "header-pink"},
	"orange": {Background: "bg-orange-50", Border: "border-orange-200", Badge: "badge-orange", Header: "header-orange"},
	"teal":   {Background: "bg-teal-50", Border: "border-teal-200", Badge: "badge-teal", Header: "header-teal"},
	"indigo": {Background: "bg-indigo-50", Border: "border-indigo-200", Badge: "badge-indigo", Header: "header-indigo"},
}

var defaultPalette = palettes["gray"]

// PaletteFor resolves a symbolic color, falling back to the default entry
// for colors the table does not know. Never errors: a schema edit elsewhere
// must not crash an open board.
func PaletteFor(color string) Palette {
	if palette, ok := palettes[color]; ok {
		return palette
	}
	return defaultPalette
}

// Column is one pipeline column (or a single stage badge).
type Column struct {
	Value   string
	Label   string
	Order   int
	Active  bool
	Palette Palette
}

func columnFromStage(stage domain.StageDescriptor) Column {
	return Column{
		Value:   stage.Value,
		Label:   stage.Label,
		Order:   stage.Order,
		Active:  stage.IsActive(),
		Palette: PaletteFor(stage.Color),
	}
}

// Columns derives the ordered active pipeline columns from a config.
func Columns(config domain.Config) []Column {
	stages := config.ActiveStages()
	out := make([]Column, 0, len(stages))
	for _, stage := range stages {
		out = append(out, columnFromStage(stage))
	}
	return out
}

// ColumnFor resolves one stage by value for badge rendering outside the
// board. Inactive stages resolve too, so records still referencing a
// retired stage keep a badge.
func ColumnFor(config domain.Config, value string) (Column, bool) {
	stage, ok := config.Stage(value)
	if !ok {
		return Column{}, false
	}
	return columnFromStage(stage), true
}
