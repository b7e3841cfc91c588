package aoefimport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/birdnet-annotations/internal/importer"
)

func sampleResult() *importer.Result {
	return &importer.Result{
		Collection: "annotation_project",
		UUID:       uuid.MustParse("6c3e1f5e-2b5f-4d6e-9a51-0f1d2c3b4a59"),
		ID:         3,
		Name:       "Bat calls",
		Created:    true,
		Stats: map[string]importer.KindStats{
			importer.KindTag:       {Mapped: 2, Created: 1},
			importer.KindRecording: {Mapped: 1, Created: 1},
		},
		Report: importer.Report{Dropped: []importer.Dropped{{
			Kind:   importer.KindClip,
			ID:     uuid.MustParse("1b2c3d4e-5f60-4718-9a2b-3c4d5e6f7a8b"),
			Reason: importer.ReasonMissingRecording,
			Detail: "0a9b8c7d-6e5f-4a3b-8c2d-1e0f9a8b7c6d",
		}}},
		Duration: 1500 * time.Millisecond,
	}
}

func TestSummarizeOrdersKinds(t *testing.T) {
	s := summarize("a.json", sampleResult(), nil)

	require.Len(t, s.Kinds, 3)
	assert.Equal(t, []string{importer.KindTag, importer.KindRecording, importer.KindClip},
		[]string{s.Kinds[0].Kind, s.Kinds[1].Kind, s.Kinds[2].Kind})
	assert.Equal(t, kindSummary{Kind: importer.KindTag, Mapped: 2, Created: 1, Reused: 1}, s.Kinds[0])
	assert.Equal(t, 1, s.Kinds[2].Dropped)
	assert.Equal(t, int64(1500), s.DurationMs)

	failed := summarize("b.json", nil, fmt.Errorf("boom"))
	assert.Equal(t, fileSummary{File: "b.json", Error: "boom"}, failed)
}

func TestWriteStructured(t *testing.T) {
	summaries := []fileSummary{summarize("a.json", sampleResult(), nil)}

	var buf bytes.Buffer
	require.NoError(t, writeStructured(&buf, OutputJSON, summaries))
	var fromJSON []fileSummary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fromJSON))
	assert.Equal(t, summaries, fromJSON)

	buf.Reset()
	require.NoError(t, writeStructured(&buf, OutputYAML, summaries))
	assert.Contains(t, buf.String(), "reason: missing recording")
	var fromYAML []fileSummary
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &fromYAML))
	assert.Equal(t, summaries, fromYAML)

	assert.Error(t, writeStructured(&buf, "xml", summaries))
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, "a.json", sampleResult(), true)

	out := buf.String()
	assert.Contains(t, out, `annotation_project "Bat calls" (created, id 3) in 1.5s`)
	assert.Regexp(t, `tag\s+2\s+1\s+1\s+0`, out)
	assert.Contains(t, out, "dropped clip 1b2c3d4e-5f60-4718-9a2b-3c4d5e6f7a8b: missing recording")
}
