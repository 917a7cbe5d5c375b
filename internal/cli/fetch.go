package cli

import (
	"fmt"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"beautyrec/internal/adapter/store"
	"beautyrec/internal/port"
)

var fetchRefresh bool

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download, validate and cache the model artifacts",
	Long: `Download the product table, classifier and similarity index, check that they
agree with each other and store them in the artifact cache
(.beautyrec/artifacts.db by default).

Examples:
  beautyrec fetch
  beautyrec fetch --refresh   # ignore cached copies`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().BoolVar(&fetchRefresh, "refresh", false, "re-download artifacts even when cached")
}

// byteProgress aggregates the concurrent downloads into one bar.
type byteProgress struct {
	mu    sync.Mutex
	bar   *progressbar.ProgressBar
	read  map[string]int64
	total map[string]int64
}

func newByteProgress() *byteProgress {
	return &byteProgress{read: make(map[string]int64), total: make(map[string]int64)}
}

func (p *byteProgress) update(name string, read, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.read[name] = read
	p.total[name] = total

	var sumRead, sumTotal int64
	for n, r := range p.read {
		sumRead += r
		t := p.total[n]
		if t < 0 || sumTotal < 0 {
			sumTotal = -1
			continue
		}
		sumTotal += t
	}

	if p.bar == nil {
		p.bar = progressbar.NewOptions64(sumTotal,
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("[cyan]Fetching artifacts[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	} else if sumTotal > 0 {
		p.bar.ChangeMax64(sumTotal)
	}
	p.bar.Set64(sumRead)
}

func (p *byteProgress) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		p.bar.Finish()
		fmt.Println()
	}
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	rootDir := GetRootDir()
	start := time.Now()

	var st *store.BoltStore
	if cfg.Cache.Enabled {
		var err error
		st, err = openCache(cfg, rootDir)
		if err != nil {
			return err
		}
		defer st.Close()
	}

	var cache port.ArtifactCache
	if st != nil {
		cache = st
	}
	loader := newLoader(cfg, rootDir, cache)

	progress := newByteProgress()
	loader.WithProgress(progress.update)

	for _, src := range loader.Sources() {
		fmt.Printf("  %-10s %s\n", src.Name, src.URL)
	}
	fmt.Println()

	arts, err := loader.Load(cmd.Context(), fetchRefresh)
	progress.finish()
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	fmt.Printf("Artifacts ready in %s:\n", formatDuration(time.Since(start)))
	fmt.Printf("  Products:   %d\n", arts.Catalog.Len())
	fmt.Printf("  Dimension:  %d\n", arts.Catalog.Matrix().Cols())
	fmt.Printf("  Index size: %d\n", arts.Index.Size())

	if st != nil {
		fmt.Printf("\nCache stored at: %s\n", cfg.CacheDBPath(rootDir))
	} else {
		fmt.Println("\nCache disabled; nothing stored.")
	}
	return nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
