package path

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Format renders segments as absolute SVG path data, e.g. "M 87.5 650 H 337.5".
func Format(segs []Segment) string {
	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = s.String()
	}
	return strings.Join(parts, " ")
}

// Parse reads absolute SVG path data made of M, H, L, V and Z commands.
// Relative (lowercase) commands are rejected. Repeated coordinates after a
// command reuse it, as in SVG; extra pairs after M are treated as L.
func Parse(data string) ([]Segment, error) {
	toks := tokenize(data)
	var out []Segment
	var cmd string
	for i := 0; i < len(toks); {
		tok := toks[i]
		if isCommand(tok) {
			cmd = tok
			i++
			if cmd == "Z" {
				out = append(out, Segment{Kind: KindClosePath})
				continue
			}
			if i >= len(toks) || isCommand(toks[i]) {
				return nil, fmt.Errorf("path: command %s without coordinates", cmd)
			}
			continue
		}
		if cmd == "" {
			return nil, fmt.Errorf("path: coordinate %q before any command", tok)
		}
		switch cmd {
		case "M", "L":
			if i+1 >= len(toks) || isCommand(toks[i+1]) {
				return nil, fmt.Errorf("path: %s needs an x y pair", cmd)
			}
			x, err := parseFloat(toks[i])
			if err != nil {
				return nil, err
			}
			y, err := parseFloat(toks[i+1])
			if err != nil {
				return nil, err
			}
			if cmd == "M" {
				out = append(out, MoveTo(x, y))
				cmd = "L"
			} else {
				out = append(out, LineTo(x, y))
			}
			i += 2
		case "H":
			x, err := parseFloat(toks[i])
			if err != nil {
				return nil, err
			}
			out = append(out, HorizontalLineTo(x))
			i++
		case "V":
			y, err := parseFloat(toks[i])
			if err != nil {
				return nil, err
			}
			out = append(out, Segment{Kind: KindVerticalLineTo, Y: y})
			i++
		default:
			return nil, fmt.Errorf("path: unsupported command %q", cmd)
		}
	}
	return out, nil
}

func isCommand(tok string) bool {
	return len(tok) == 1 && unicode.IsLetter(rune(tok[0]))
}

// tokenize splits on whitespace and commas and separates command letters
// glued to numbers ("M10,20H30").
func tokenize(data string) []string {
	var toks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	for _, r := range data {
		switch {
		case unicode.IsSpace(r) || r == ',':
			flush()
		case unicode.IsLetter(r) && r != 'e' && r != 'E':
			flush()
			toks = append(toks, string(r))
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}

func parseFloat(tok string) (float64, error) {
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, fmt.Errorf("path: invalid number %q", tok)
	}
	return v, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
