package render

import (
	"fmt"
	"os"
	"path/filepath"

	chart "github.com/wcharczuk/go-chart/v2"
)

// Publisher writes rendered charts to a PNG file, replacing the previous image
// in one rename so readers never see a half-written file.
type Publisher struct {
	path string
}

// NewPublisher returns a publisher for path.
func NewPublisher(path string) *Publisher {
	return &Publisher{path: path}
}

// Path is the published image location.
func (p *Publisher) Path() string {
	return p.path
}

// Publish renders graph to the target path. A nil graph is ignored.
func (p *Publisher) Publish(graph *chart.Chart) error {
	if graph == nil || p.path == "" {
		return nil
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(p.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if err := graph.Render(chart.PNG, tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("render png: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, p.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
