package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog/log"
)

// printMarkdown renders markdown for the terminal, or prints it as is with -raw.
func printMarkdown(md string) {
	if *raw {
		fmt.Print(md)
		return
	}
	fmt.Print(renderMarkdown(md))
}

// renderMarkdown renders markdown with glamour, and returns it as is when it cannot.
func renderMarkdown(md string) string {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			return out
		}
	}
	log.Debug().Err(err).Msg("cannot render markdown, printing it as is")
	return md
}

// report prints a markdown report and saves it to file when file is not empty.
func report(md, file string) error {
	printMarkdown(md)
	if file == "" {
		return nil
	}
	if dir := filepath.Dir(file); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(file, []byte(md), 0o644); err != nil {
		return err
	}
	log.Info().Str("file", file).Msg("report saved")
	return nil
}
