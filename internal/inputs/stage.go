package inputs

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/damsweep/internal/config"
	"github.com/sells-group/damsweep/internal/fetcher"
)

// shapefileSidecars are fetched alongside every .shp. The .prj is optional.
var shapefileSidecars = []string{".shx", ".dbf", ".prj"}

// Files lists the file names a complete input directory holds.
func Files(cfg config.InputConfig) []string {
	var out []string
	for _, shpFile := range []string{cfg.DamsFile, cfg.CensusFile} {
		out = append(out, shpFile)
		base := strings.TrimSuffix(shpFile, filepath.Ext(shpFile))
		for _, ext := range shapefileSidecars {
			out = append(out, base+ext)
		}
	}
	return append(out, cfg.SlopeFile)
}

// Stage downloads every input file from baseURL into cfg.Dir and returns the
// files written.
func Stage(ctx context.Context, f fetcher.Fetcher, baseURL string, cfg config.InputConfig) ([]string, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, eris.Wrapf(err, "inputs: parse source url %s", baseURL)
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "inputs: create %s", cfg.Dir)
	}

	log := zap.L().With(zap.String("component", "stage"))
	var written []string
	for _, name := range Files(cfg) {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		src := *base
		src.Path = path.Join(base.Path, filepath.Base(name))
		dst := cfg.Path(name)

		n, err := f.DownloadToFile(ctx, src.String(), dst)
		if err != nil {
			if filepath.Ext(name) == ".prj" {
				log.Warn("stage: optional projection file unavailable", zap.String("file", name), zap.Error(err))
				continue
			}
			return written, eris.Wrapf(err, "inputs: stage %s", name)
		}
		log.Info("staged input", zap.String("file", dst), zap.Int64("bytes", n))
		written = append(written, dst)
	}
	return written, nil
}
