package dashboard

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/iamhaymc/NewSpace/internal/storage"
)

// StatsSource is satisfied by storage.Store.
type StatsSource interface {
	Stats(ctx context.Context) (storage.Stats, error)
}

// Render writes the crawl report page for st.
func Render(w io.Writer, st storage.Stats) error {
	// 1. Space Dominance
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Posts per Space"}),
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
	)
	var pieItems []opts.PieData
	for _, c := range st.PostsBySpace {
		pieItems = append(pieItems, opts.PieData{Name: c.Key, Value: c.Count})
	}
	pie.AddSeries("Posts", pieItems)

	// 2. Post kinds
	kinds := charts.NewBar()
	kinds.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Submissions and Comments"}))
	kinds.SetXAxis(keys(st.PostsByType)).AddSeries("Posts", bars(st.PostsByType))

	// 3. Downloaded media
	assets := charts.NewBar()
	assets.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Assets per Media Type"}))
	assets.SetXAxis(keys(st.AssetsByType)).AddSeries("Assets", bars(st.AssetsByType))

	page := components.NewPage()
	page.PageTitle = "Crawl Report"
	page.AddCharts(pie, kinds, assets)
	return page.Render(w)
}

// WriteFile renders the report from src into path.
func WriteFile(ctx context.Context, src StatsSource, path string) error {
	st, err := src.Stats(ctx)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Render(f, st); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Handler renders a fresh report on every request.
func Handler(src StatsSource, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st, err := src.Stats(r.Context())
		if err != nil {
			logger.Error("Report failed", "err", err)
			http.Error(w, "report unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := Render(w, st); err != nil {
			logger.Error("Report render failed", "err", err)
		}
	})
}

func StartServer(src StatsSource, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/", Handler(src, logger))
	return http.ListenAndServe(addr, mux)
}

func keys(cs []storage.Count) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Key
	}
	return out
}

func bars(cs []storage.Count) []opts.BarData {
	out := make([]opts.BarData, len(cs))
	for i, c := range cs {
		out[i] = opts.BarData{Value: c.Count}
	}
	return out
}
