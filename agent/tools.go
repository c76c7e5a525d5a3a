package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/etnz/research/docs"
	"google.golang.org/genai"
)

// Reports returns the function listing and reading the markdown reports saved in dir.
func Reports(dir string) *Func {
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name: "Reports",
			Description: `Reports lists the research reports saved by the user, newest first, with their modification date.
			Given the name of a report, it returns its markdown content instead.`,
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name": {
						Type:        genai.TypeString,
						Description: "The file name of the report to read, as listed. Leave empty to list the reports.",
					},
				},
			},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown list of reports, or the markdown content of a report.",
			},
		},
		Func: func(_ context.Context, id string, args map[string]any) *genai.FunctionResponse {
			name, err := stringArg(args, "name", false)
			if err != nil {
				return failure(id, "Reports", err)
			}
			var out string
			if name == "" {
				out, err = listReports(dir)
			} else {
				out, err = readReport(dir, name)
			}
			if err != nil {
				return failure(id, "Reports", err)
			}
			return success(id, "Reports", out)
		},
	}
}

// listReports lists the *.md files of dir, newest first.
func listReports(dir string) (string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return "", err
	}
	type report struct {
		name string
		info os.FileInfo
	}
	var reports []report
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			return "", err
		}
		reports = append(reports, report{filepath.Base(f), info})
	}
	if len(reports) == 0 {
		return "There is no saved report. Reports are saved with the -o flag of prs commands.", nil
	}
	slices.SortFunc(reports, func(a, b report) int { return b.info.ModTime().Compare(a.info.ModTime()) })

	var b strings.Builder
	for _, r := range reports {
		fmt.Fprintf(&b, "* %s (%s, %d bytes)\n", r.name, r.info.ModTime().Format("2006-01-02 15:04"), r.info.Size())
	}
	return b.String(), nil
}

// readReport reads a report of dir. Names cannot escape dir.
func readReport(dir, name string) (string, error) {
	if name != filepath.Base(name) || !strings.HasSuffix(name, ".md") {
		return "", fmt.Errorf("invalid report name %q, use a name from the list", name)
	}
	content, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("could not read report %q: %w", name, err)
	}
	return string(content), nil
}

// Methodology reads the documentation topics.
var Methodology = &Func{
	Decl: &genai.FunctionDeclaration{
		Name:        "Methodology",
		Description: "Methodology explains how the research reports are computed. " + topicList(),
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"topic": {
					Type:        genai.TypeString,
					Description: `The topic to read, "*" reads every topic.`,
				},
			},
			Required: []string{"topic"},
		},
		Response: &genai.Schema{
			Type:        genai.TypeString,
			Description: "The markdown documentation of the topic.",
		},
	},
	Func: func(_ context.Context, id string, args map[string]any) *genai.FunctionResponse {
		topic, err := stringArg(args, "topic", true)
		if err != nil {
			return failure(id, "Methodology", err)
		}
		content, err := docs.GetTopic(topic)
		if err != nil {
			return failure(id, "Methodology", fmt.Errorf("%w. %s", err, topicList()))
		}
		return success(id, "Methodology", content)
	},
}

// topicList describes the available topics.
func topicList() string {
	topics, err := docs.Index()
	if err != nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("Topics are:\n")
	for _, t := range topics {
		fmt.Fprintf(&b, "- %s: %s\n", t.Name, t.Description)
	}
	return b.String()
}
