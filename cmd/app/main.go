package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/staffline/internal"
	"github.com/starford/staffline/internal/codec"
	"github.com/starford/staffline/internal/midiexport"
	"github.com/starford/staffline/internal/path"
	"github.com/starford/staffline/internal/scorefile"
	"github.com/starford/staffline/internal/validation"
	pkgconfig "github.com/starford/staffline/pkg/config"
)

const defaultConfigPath = "config/config.yaml"

// loadConfig reads the config file. Offline commands fall back to the
// defaults when the file is missing.
func loadConfig(cmd *cli.Command, required bool) (*internal.Config, error) {
	configPath := cmd.String("config")
	cfg := internal.NewDefaultConfig()
	if required {
		if err := pkgconfig.Load(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, nil
	}
	if _, err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd, true)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd, true)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("mcp run error: %w", err)
	}
	return nil
}

func readScore(file string) (*scorefile.Result, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return scorefile.Parse(data)
}

func encode(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd, false)
	if err != nil {
		return err
	}
	res, err := readScore(cmd.String("score"))
	if err != nil {
		return err
	}
	part := int(cmd.Int("part"))
	if part < 0 || part >= len(res.Score.Parts) {
		return fmt.Errorf("score has %d parts, no part %d", len(res.Score.Parts), part)
	}
	visible := int(cmd.Int("measures"))
	if visible <= 0 {
		visible = cfg.Geometry.VisibleMeasures
	}
	segs := codec.ToPathSegments(res.Score.Parts[part].Measures, cfg.Geometry, visible)
	_, err = fmt.Fprintln(cmd.Root().Writer, path.Format(segs))
	return err
}

func decode(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd, false)
	if err != nil {
		return err
	}
	d := cmd.String("path")
	if d == "" || d == "-" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
		d = strings.TrimSpace(string(raw))
	}
	segs, err := path.Parse(d)
	if err != nil {
		return err
	}
	measures, err := codec.ToMeasures(segs, cfg.Geometry)
	if err != nil {
		var errs validation.Errors
		if errors.As(err, &errs) {
			for _, e := range errs {
				fmt.Fprintf(cmd.Root().ErrWriter, "%s [%s]\n", e, e.Code())
			}
			return fmt.Errorf("%d decode errors", len(errs))
		}
		return err
	}
	out, err := scorefile.MarshalMeasures(measures)
	if err != nil {
		return err
	}
	_, err = cmd.Root().Writer.Write(out)
	return err
}

func exportMIDI(ctx context.Context, cmd *cli.Command) error {
	res, err := readScore(cmd.String("score"))
	if err != nil {
		return err
	}
	out := cmd.String("out")
	if out == "" {
		out = strings.TrimSuffix(cmd.String("score"), ".yaml") + ".mid"
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	opts := midiexport.DefaultOptions()
	opts.Tempo = cmd.Float("tempo")
	if err := midiexport.Write(f, res.Score, opts); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	slog.Info("midi written", slog.String("file", out), slog.Int("parts", len(res.Score.Parts)))
	return nil
}

func scoreFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "score",
		Aliases:  []string{"s"},
		Usage:    "Path to a YAML score file",
		Required: true,
	}
}

func main() {
	cmd := &cli.Command{
		Name:   "staffline",
		Usage:  "Staff notation library with a path codec, drawing sessions, and MIDI export",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: defaultConfigPath,
				Value:       defaultConfigPath,
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API and library watcher",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: serveMCP,
			},
			{
				Name:   "encode",
				Usage:  "Print the leading measures of one part as SVG path data",
				Action: encode,
				Flags: []cli.Flag{
					scoreFlag(),
					&cli.IntFlag{Name: "part", Aliases: []string{"p"}, Usage: "Zero-based part index"},
					&cli.IntFlag{Name: "measures", Aliases: []string{"m"}, Usage: "Measures to draw (default: visible measures)"},
				},
			},
			{
				Name:   "decode",
				Usage:  "Read SVG path data back into YAML measures",
				Action: decode,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "path", Aliases: []string{"d"}, Usage: "SVG path data, or - to read stdin"},
				},
			},
			{
				Name:   "export-midi",
				Usage:  "Write a score as a Standard MIDI File",
				Action: exportMIDI,
				Flags: []cli.Flag{
					scoreFlag(),
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file (default: score name with .mid)"},
					&cli.FloatFlag{Name: "tempo", Usage: "Quarter notes per minute", Value: midiexport.DefaultTempo},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
