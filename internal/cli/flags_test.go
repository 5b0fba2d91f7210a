package cli

import (
	"testing"

	"github.com/spf13/cobra"

	"github.com/refgraph/refgraph/pkg/backend"
	"github.com/refgraph/refgraph/pkg/degree"
	"github.com/refgraph/refgraph/pkg/errors"
	"github.com/refgraph/refgraph/pkg/layout"
	"github.com/refgraph/refgraph/pkg/pipeline"
)

// parsed registers pipeline flags on a throwaway command and parses args.
func parsed(t *testing.T, args ...string) (*cobra.Command, *pipelineFlags) {
	t.Helper()
	var pf pipelineFlags
	cmd := &cobra.Command{Use: "x"}
	pf.register(cmd)
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatalf("Parse(%v) error = %v", args, err)
	}
	return cmd, &pf
}

func TestPipelineFlagsApply(t *testing.T) {
	base := pipeline.Options{ScoreKeys: []string{"face_score", "left_iris_score"}, Prune: true}

	cmd, pf := parsed(t, "-k", "face_score", "-t", "face_score=0.7", "--metric", "direct", "--seed", "9", "--prune=false")
	o, err := pf.apply(cmd, base, "")
	if err != nil {
		t.Fatalf("apply() error = %v", err)
	}
	if !o.Filter.IsSelected("face_score") || o.Filter.IsSelected("left_iris_score") {
		t.Errorf("selected = %v", o.Filter.Selected())
	}
	if o.Filter.Threshold("face_score") != 0.7 {
		t.Errorf("threshold = %v", o.Filter.Threshold("face_score"))
	}
	if o.Metric != degree.PolicyDirect || o.Seed != 9 || o.Prune {
		t.Errorf("opts = %+v", o)
	}
}

func TestPipelineFlagsKeepBase(t *testing.T) {
	base := pipeline.Options{Prune: true, Seed: 3}
	cmd, pf := parsed(t)
	o, err := pf.apply(cmd, base, "")
	if err != nil {
		t.Fatal(err)
	}
	if !o.Prune || o.Seed != 3 || o.Layout != layout.KindBanded {
		t.Errorf("unset flags should keep base: %+v", o)
	}
}

func TestPipelineFlagsLayoutFromKind(t *testing.T) {
	cmd, pf := parsed(t)
	o, err := pf.apply(cmd, pipeline.Options{}, backend.KindOffTime)
	if err != nil {
		t.Fatal(err)
	}
	if o.Layout != layout.KindCluster {
		t.Errorf("Layout = %q, want cluster for offtime", o.Layout)
	}

	cmd, pf = parsed(t, "--layout", "banded")
	o, err = pf.apply(cmd, pipeline.Options{}, backend.KindOffTime)
	if err != nil {
		t.Fatal(err)
	}
	if o.Layout != layout.KindBanded {
		t.Errorf("explicit layout overridden: %q", o.Layout)
	}
}

func TestPipelineFlagsErrors(t *testing.T) {
	tests := []struct {
		args []string
		code errors.Code
	}{
		{[]string{"-t", "face_score=high"}, errors.ErrCodeInvalidThreshold},
		{[]string{"--layout", "spiral"}, errors.ErrCodeInvalidLayout},
		{[]string{"--metric", "pagerank"}, errors.ErrCodeInvalidMetric},
	}
	for _, tt := range tests {
		cmd, pf := parsed(t, tt.args...)
		if _, err := pf.apply(cmd, pipeline.Options{}, ""); !errors.Is(err, tt.code) {
			t.Errorf("apply(%v) error = %v, want %s", tt.args, err, tt.code)
		}
	}
}

func TestQueryFlags(t *testing.T) {
	qf := queryFlags{degree: 4}

	q, err := qf.query([]string{"component", "c42"})
	if err != nil {
		t.Fatal(err)
	}
	if q != (backend.Query{Kind: backend.KindComponent, ID: "c42", Degree: 4}) {
		t.Errorf("query = %+v", q)
	}

	if _, err := qf.query([]string{"component"}); !errors.Is(err, errors.ErrCodeInvalidQuery) {
		t.Errorf("missing id error = %v", err)
	}
	if _, err := qf.query([]string{"people"}); !errors.Is(err, errors.ErrCodeInvalidQuery) {
		t.Errorf("bad kind error = %v", err)
	}
	if _, err := qf.query([]string{"sameop"}); err != nil {
		t.Errorf("sameop needs no id: %v", err)
	}
}
