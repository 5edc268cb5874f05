package sweep

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/damsweep/internal/model"
)

// ReportFile is the name of the run report written to the output directory.
const ReportFile = "sweep_report.yaml"

// Report is the YAML run report.
type Report struct {
	RunID     string          `yaml:"run_id"`
	Status    model.RunStatus `yaml:"status"`
	StartedAt time.Time       `yaml:"started_at"`
	Elapsed   string          `yaml:"elapsed"`
	Length    string          `yaml:"length"`
	Width     string          `yaml:"width"`
	Points    int             `yaml:"points"`
	Succeeded int             `yaml:"succeeded"`
	Failed    int             `yaml:"failed"`
	Skipped   int             `yaml:"skipped"`
	Failures  []PointFailure  `yaml:"failures,omitempty"`
}

// NewReport builds the report of a finished sweep.
func NewReport(sum *Summary, opts Options) Report {
	return Report{
		RunID:     sum.RunID,
		Status:    sum.Status,
		StartedAt: sum.StartedAt,
		Elapsed:   sum.Elapsed.Round(time.Millisecond).String(),
		Length:    opts.Lengths.String(),
		Width:     opts.Widths.String(),
		Points:    sum.Points,
		Succeeded: sum.Succeeded,
		Failed:    len(sum.Failures),
		Skipped:   sum.Skipped,
		Failures:  sum.Failures,
	}
}

// WriteReport writes the report to dir/ReportFile and returns its path.
func WriteReport(dir string, r Report) (string, error) {
	data, err := yaml.Marshal(r)
	if err != nil {
		return "", eris.Wrap(err, "sweep: marshal report")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "sweep: create %s", dir)
	}
	path := filepath.Join(dir, ReportFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", eris.Wrapf(err, "sweep: write %s", path)
	}
	return path, nil
}

// ReadReport loads a report written by WriteReport.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "sweep: read %s", path)
	}
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, eris.Wrapf(err, "sweep: parse %s", path)
	}
	return &r, nil
}
