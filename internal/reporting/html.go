package reporting

import (
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/codewithboateng/jclgraph/internal/graph"
	"github.com/codewithboateng/jclgraph/internal/ir"
)

//go:embed templates/*.html.tmpl
var builtinTemplates embed.FS

const (
	mainTemplate = "main.html.tmpl"
	flowTemplate = "flow.html.tmpl"
)

type HTMLOptions struct {
	// TemplatesDir replaces the built-in page templates. It must hold
	// main.html.tmpl and flow.html.tmpl.
	TemplatesDir string
}

type flowLink struct {
	Href     string
	Program  string
	Performs int
}

type mainPage struct {
	RunID   string
	Run     *ir.Run
	Graph   *graph.Graph
	Steps   int
	Mermaid string
	Flows   []flowLink
}

type flowPage struct {
	RunID   string
	Back    string
	Flow    graph.Flow
	Program *ir.Program
	Mermaid string
}

// FlowPageName is the file name of the page for one internal flow.
func FlowPageName(runID, flowID string) string {
	return runID + "_" + flowID + ".html"
}

func loadTemplates(dir string) (*template.Template, error) {
	if dir == "" {
		return template.ParseFS(builtinTemplates, "templates/*.html.tmpl")
	}
	t, err := template.ParseFS(os.DirFS(dir), mainTemplate, flowTemplate)
	if err != nil {
		return nil, fmt.Errorf("templates dir %s: %w", dir, err)
	}
	return t, nil
}

// WriteHTML writes the main page and one page per internal flow. The main
// page diagram links every program node with a flow to its page. It returns
// the written paths, main page first.
func WriteHTML(runID, outDir string, run *ir.Run, g *graph.Graph, opts HTMLOptions) ([]string, error) {
	tpl, err := loadTemplates(opts.TemplatesDir)
	if err != nil {
		return nil, err
	}
	link := func(flowID string) string { return FlowPageName(runID, flowID) }

	page := mainPage{RunID: runID, Run: run, Graph: g, Mermaid: Mermaid(g, link)}
	for _, j := range run.Jobs {
		page.Steps += len(j.Steps)
	}
	for _, f := range g.Flows {
		page.Flows = append(page.Flows, flowLink{Href: link(f.ID), Program: f.Program, Performs: len(f.Steps)})
	}

	mainPath := filepath.Join(outDir, runID+".html")
	if err := render(tpl, mainTemplate, mainPath, page); err != nil {
		return nil, err
	}
	paths := []string{mainPath}

	programs := map[string]*ir.Program{}
	for i := range run.Programs {
		programs[run.Programs[i].ProgramID] = &run.Programs[i]
	}
	for _, f := range g.Flows {
		p := filepath.Join(outDir, link(f.ID))
		fp := flowPage{
			RunID:   runID,
			Back:    runID + ".html",
			Flow:    f,
			Program: programs[f.Program],
			Mermaid: FlowMermaid(f),
		}
		if err := render(tpl, flowTemplate, p, fp); err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func render(tpl *template.Template, name, path string, data any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := tpl.ExecuteTemplate(f, name, data); err != nil {
		f.Close()
		return fmt.Errorf("render %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// WriteMermaid writes the diagram text on its own.
func WriteMermaid(runID, outDir string, g *graph.Graph) (string, error) {
	path := filepath.Join(outDir, runID+".mmd")
	return path, os.WriteFile(path, []byte(Mermaid(g, nil)), 0o644)
}
