package mcpserver

const fence = "```"

// ScoreFormat describes the score file format and the path drawing
// convention for LLM consumers.
const ScoreFormat = `# Staffline Score Format

Scores are YAML files with a ` + "`.yaml`" + ` extension, stored under the library root.

## Structure

` + fence + `yaml
title: Etude                 # OPTIONAL - falls back to the first part name
parts:
  - name: Melody             # one entry per instrument line
    measures:
      - notes:
          - {kind: pitched, duration: whole, pitch: Bb4}
          - {kind: chord, duration: half, pitch: C4, pitches: [E4, G4]}
          - {kind: rest, duration: quarter}
          - {kind: unpitched, duration: eighth}
` + fence + `

## Rules

1. **kind** is one of ` + "`pitched`" + ` (default when omitted), ` + "`chord`" + `, ` + "`rest`" + ` or ` + "`unpitched`" + `.
2. **duration** is one of ` + "`eighth`, `quarter`, `dotted-quarter`, `half`, `dotted-half`, `whole`, `dotted-whole`, `double-whole`" + `.
3. **pitch** is a step letter, an optional ` + "`b`" + ` or ` + "`#`" + `, and an octave: ` + "`Bb4`, `C#3`, `A2`" + `.
   C4 is middle C. Chords list their root in ` + "`pitch`" + ` and the rest in ` + "`pitches`" + `.
4. A measure holds up to two whole notes (sixteen eighths). Notes play in order.
5. Unknown keys are rejected.

## Drawing convention

Each note is drawn as ` + "`M x y H x2`" + `: x is its start in pixels, x2 its end, y its
height. Measure i (zero-based) starts at ` + "`offset_x + i * (measure_width + space_between_measures)`" + `.
One eighth is ` + "`measure_width / 16`" + ` pixels wide. Heights move up by
` + "`whole_step_pixel_height`" + ` per whole step; Ab3 sits at
` + "`offset_y + flip_height * whole_step_pixel_height`" + `. Call ` + "`get_geometry`" + ` for the values.
Rests and unpitched notes are drawn off the pitch table and cannot be read back.
`
