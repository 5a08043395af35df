// Package schema holds the JSON Schemas every structured generator output is
// checked against before it is trusted.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed *.schema.json
var files embed.FS

var (
	// Relevance is the relevance verdict {relevant, relevance_score, reason}
	Relevance = mustCompile("relevance.schema.json")
	// PromptCard is the Part 2 card {main_prompt, bullet_points}
	PromptCard = mustCompile("card.schema.json")
	// Rounding is the Part 2 rounding-off questions {questions}
	Rounding = mustCompile("rounding.schema.json")
	// Theme is the Part 3 discussion theme {theme}
	Theme = mustCompile("theme.schema.json")
	// Report is the rubric scoring report
	Report = mustCompile("report.schema.json")
)

func mustCompile(name string) *jsonschema.Schema {
	raw, err := files.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to read embedded %s: %v", name, err))
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}
	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// Decode validates raw against sch and unmarshals it into out.
// Markdown code fences around the payload are tolerated.
func Decode(sch *jsonschema.Schema, raw []byte, out any) error {
	raw = stripFences(raw)
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("parsing json: %w", err)
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding json: %w", err)
	}
	return nil
}

func stripFences(raw []byte) []byte {
	s := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(s, "```") {
		return []byte(s)
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return []byte(strings.TrimSpace(s))
}
