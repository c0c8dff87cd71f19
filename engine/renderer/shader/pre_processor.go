package shader

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Carmen-Shannon/pixel-world/engine/automata"
	"github.com/Carmen-Shannon/pixel-world/engine/camera"
)

// Built-in include names.
const (
	IncludeDrawPushConstants = "draw_push_constants"
	IncludePalette           = "palette"
	IncludeCameraUniform     = "camera_uniform"
)

// includeRegex matches a whole-line include directive such as `#include <palette>`.
var includeRegex = regexp.MustCompile(`^\s*#include\s*<\s*([\w.-]+)\s*>\s*$`)

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	snippets map[string]string
	included []string
}

// PreProcessor expands `#include <name>` lines into registered WGSL snippets so
// structs shared with Go are defined in exactly one place.
type PreProcessor interface {
	// Register adds or replaces a named snippet.
	//
	// Parameters:
	//   - name: the include name
	//   - source: the WGSL text the directive expands to
	Register(name, source string)

	// Process expands every include directive in source. A snippet is expanded at most
	// once per Process call; repeated directives for the same name expand to nothing.
	//
	// Parameters:
	//   - source: raw WGSL source
	//
	// Returns:
	//   - string: the expanded source
	//   - error: an error naming the line of the first unknown include
	Process(source string) (string, error)

	// Included returns the names expanded by the last Process call, in source order.
	Included() []string

	// Names returns every registered snippet name, sorted.
	Names() []string
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with the engine's shared structs registered.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		snippets: map[string]string{
			IncludeDrawPushConstants: automata.DrawPushConstantsSource,
			IncludePalette:           automata.PaletteSource(),
			IncludeCameraUniform:     camera.GPUCameraUniformSource,
		},
	}
}

func (p *preProcessor) Register(name, source string) {
	p.snippets[name] = source
}

func (p *preProcessor) Process(source string) (string, error) {
	p.included = p.included[:0]
	seen := make(map[string]bool)

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		m := includeRegex.FindStringSubmatch(line)
		if m == nil {
			out = append(out, line)
			continue
		}
		name := m[1]
		snippet, ok := p.snippets[name]
		if !ok {
			return "", fmt.Errorf("line %d: unknown include %q", i+1, name)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		p.included = append(p.included, name)
		out = append(out, strings.TrimRight(snippet, "\n"))
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Included() []string {
	return p.included
}

func (p *preProcessor) Names() []string {
	names := make([]string, 0, len(p.snippets))
	for n := range p.snippets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
