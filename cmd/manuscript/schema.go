package main

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/maruel/manuscript/internal/config"
	"github.com/maruel/manuscript/internal/storage/knowledge"
	"github.com/maruel/manuscript/internal/storage/project"
	"github.com/maruel/manuscript/internal/storage/stats"
	"github.com/maruel/manuscript/internal/storage/version"
)

// schemas maps each persisted file to the Go value it holds. Files holding a
// JSON array register their row type in rows.
var (
	schemas = map[string]any{
		"project":   &project.Record{},
		"knowledge": &knowledge.KnowledgeBase{},
		"config":    &config.Config{},
	}
	rows = map[string]any{
		"versions": &version.Entry{},
		"stats":    &stats.Sample{},
	}
)

// reflectSchema returns the schema of the named file.
func reflectSchema(name string) *jsonschema.Schema {
	// The project record is recursive, so nested types go to $defs.
	r := jsonschema.Reflector{Anonymous: true, ExpandedStruct: true}
	if v, ok := schemas[name]; ok {
		return r.Reflect(v)
	}
	item := r.Reflect(rows[name])
	s := &jsonschema.Schema{Version: item.Version, Type: "array", Items: item, Definitions: item.Definitions}
	item.Version = ""
	item.Definitions = nil
	return s
}

func (a *app) schemaCmd() *cobra.Command {
	names := append(slices.Collect(maps.Keys(schemas)), slices.Collect(maps.Keys(rows))...)
	slices.Sort(names)
	return &cobra.Command{
		Use:         "schema <" + strings.Join(names, "|") + ">",
		Short:       "Print the JSON Schema of a persisted file",
		Annotations: map[string]string{noWorkspace: "true"},
		Args:        cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs:   names,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := json.MarshalIndent(reflectSchema(args[0]), "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal schema: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}
