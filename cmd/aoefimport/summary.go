package aoefimport

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tphakala/birdnet-annotations/internal/importer"
)

// printSummary writes the per-kind statistics of one import as a table.
func printSummary(w io.Writer, path string, r *importer.Result, showDropped bool) {
	state := "existing"
	if r.Created {
		state = "created"
	}
	_, _ = fmt.Fprintf(w, "\n%s: %s %q (%s, id %d) in %s\n",
		path, r.Collection, r.Name, state, r.ID, r.Duration.Round(time.Millisecond))

	dropped := r.Report.DroppedByKind()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	_, _ = fmt.Fprintln(tw, "kind\tmapped\tcreated\treused\tdropped\t")
	for _, kind := range importer.KindOrder {
		s, ok := r.Stats[kind]
		if !ok && dropped[kind] == 0 {
			continue
		}
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t\n", kind, s.Mapped, s.Created, s.Reused(), dropped[kind])
	}
	_ = tw.Flush()

	if len(r.ProjectTags) > 0 {
		_, _ = fmt.Fprintf(w, "project tags: %d\n", len(r.ProjectTags))
	}

	if !showDropped {
		if n := len(r.Report.Dropped); n > 0 {
			_, _ = fmt.Fprintf(w, "%d entities dropped, rerun with --show-dropped to list them\n", n)
		}
		return
	}
	for _, d := range r.Report.Dropped {
		_, _ = fmt.Fprintf(w, "  dropped %s %s: %s (%s)\n", d.Kind, d.ID, d.Reason, d.Detail)
	}
}

// Output formats
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

type kindSummary struct {
	Kind    string `json:"kind" yaml:"kind"`
	Mapped  int    `json:"mapped" yaml:"mapped"`
	Created int    `json:"created" yaml:"created"`
	Reused  int    `json:"reused" yaml:"reused"`
	Dropped int    `json:"dropped" yaml:"dropped"`
}

type droppedSummary struct {
	Kind   string `json:"kind" yaml:"kind"`
	UUID   string `json:"uuid" yaml:"uuid"`
	Reason string `json:"reason" yaml:"reason"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// fileSummary is the machine-readable outcome of importing one file.
type fileSummary struct {
	File       string           `json:"file" yaml:"file"`
	Collection string           `json:"collection,omitempty" yaml:"collection,omitempty"`
	UUID       string           `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	ID         uint             `json:"id,omitempty" yaml:"id,omitempty"`
	Name       string           `json:"name,omitempty" yaml:"name,omitempty"`
	Created    bool             `json:"created" yaml:"created"`
	DurationMs int64            `json:"duration_ms" yaml:"duration_ms"`
	Kinds      []kindSummary    `json:"kinds,omitempty" yaml:"kinds,omitempty"`
	Dropped    []droppedSummary `json:"dropped,omitempty" yaml:"dropped,omitempty"`
	Error      string           `json:"error,omitempty" yaml:"error,omitempty"`
}

func summarize(path string, r *importer.Result, err error) fileSummary {
	s := fileSummary{File: path}
	if err != nil {
		s.Error = err.Error()
		return s
	}
	s.Collection = r.Collection
	s.UUID = r.UUID.String()
	s.ID = r.ID
	s.Name = r.Name
	s.Created = r.Created
	s.DurationMs = r.Duration.Milliseconds()

	dropped := r.Report.DroppedByKind()
	for _, kind := range importer.KindOrder {
		st, ok := r.Stats[kind]
		if !ok && dropped[kind] == 0 {
			continue
		}
		s.Kinds = append(s.Kinds, kindSummary{
			Kind: kind, Mapped: st.Mapped, Created: st.Created, Reused: st.Reused(), Dropped: dropped[kind],
		})
	}
	for _, d := range r.Report.Dropped {
		s.Dropped = append(s.Dropped, droppedSummary{Kind: d.Kind, UUID: d.ID.String(), Reason: d.Reason, Detail: d.Detail})
	}
	return s
}

// writeStructured encodes the summaries as JSON or YAML.
func writeStructured(w io.Writer, format string, summaries []fileSummary) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	case OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(summaries); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
