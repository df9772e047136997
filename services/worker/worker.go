package worker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"sjsage522/pricetracker/helpers"
	"sjsage522/pricetracker/internal/crawler"
	"sjsage522/pricetracker/internal/market"
	"sjsage522/pricetracker/internal/report"
	trackerr "sjsage522/pricetracker/pkg/errors"
	"sjsage522/pricetracker/services/archive"
	"sjsage522/pricetracker/services/publisher"
	"sjsage522/pricetracker/services/store"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Options configures a worker
type Options struct {
	URLs          []string
	Concurrency   int
	CrawlInterval time.Duration
	ArchivePrefix string
	Production    bool
}

// SummaryMessage is published once per product per run
type SummaryMessage struct {
	RunID           string  `json:"run_id"`
	Product         string  `json:"product"`
	Key             string  `json:"key"`
	URL             string  `json:"url"`
	Date            string  `json:"date"`
	MarketPrice     string  `json:"market_price"`
	MostRecentSale  string  `json:"most_recent_sale"`
	ListedMedian    string  `json:"listed_median"`
	CurrentQuantity string  `json:"current_quantity"`
	CurrentSellers  string  `json:"current_sellers"`
	TotalSold       string  `json:"total_sold"`
	PriceChange     float64 `json:"price_change"`
	QuantityChange  int64   `json:"quantity_change"`
	DailySales      int64   `json:"daily_sales"`
}

// Worker handles the crawl, persist, publish and report cycle
type Worker struct {
	crawler   crawler.PageCrawler
	store     store.Store
	publisher publisher.Publisher
	renderer  report.Renderer
	archiver  archive.Archiver
	logger    helpers.LoggerInterface
	opts      Options
	now       func() time.Time
	locks     keyedMutex
}

// NewWorker creates a new worker. renderer may be nil to disable reports
// and archiver may be nil to disable archiving.
func NewWorker(
	opts Options,
	pageCrawler crawler.PageCrawler,
	st store.Store,
	pub publisher.Publisher,
	renderer report.Renderer,
	arch archive.Archiver,
	logger helpers.LoggerInterface,
) *Worker {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if arch == nil {
		arch = archive.NoopArchiver{}
	}

	return &Worker{
		crawler:   pageCrawler,
		store:     st,
		publisher: pub,
		renderer:  renderer,
		archiver:  arch,
		logger:    logger,
		opts:      opts,
		now:       time.Now,
	}
}

// Start runs a pass every crawl interval until ctx is cancelled
func (w *Worker) Start(ctx context.Context) error {
	for {
		start := time.Now()
		if _, err := w.RunOnce(ctx); err != nil {
			return err
		}
		if !w.opts.Production {
			w.logger.LogInfo("Crawl pass took %s", time.Since(start))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.opts.CrawlInterval):
		}
	}
}

// RunOnce processes every product once, trims the streams and renders the
// report. Per-product failures are logged and skipped; only cancellation
// is returned as an error.
func (w *Worker) RunOnce(ctx context.Context) ([]report.ProductReport, error) {
	runID := uuid.NewString()
	results := make([]*report.ProductReport, len(w.opts.URLs))

	var g errgroup.Group
	g.SetLimit(w.opts.Concurrency)
	for i, url := range w.opts.URLs {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			r, err := w.processProduct(ctx, runID, url)
			if err != nil {
				w.logger.LogError(url, err)
				return nil
			}
			results[i] = r
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := w.publisher.TrimStreams(); err != nil {
		w.logger.LogError("StreamTrimming", trackerr.NewPublisher("", "failed to trim streams", err))
	}

	reports := make([]report.ProductReport, 0, len(results))
	for _, r := range results {
		if r != nil {
			reports = append(reports, *r)
		}
	}

	if len(reports) == 0 {
		w.logger.LogInfo("Run %s: no product data collected, skipping report", runID)
		return reports, nil
	}

	w.archiveSeries(ctx, reports)
	w.renderReport(ctx, runID, reports)

	w.logger.LogInfo("Run %s: %d of %d products tracked", runID, len(reports), len(w.opts.URLs))
	return reports, nil
}

// processProduct crawls one product and merges the observation into its series
func (w *Worker) processProduct(ctx context.Context, runID, url string) (*report.ProductReport, error) {
	result, err := w.crawler.Crawl(ctx, url)
	if err != nil {
		return nil, err
	}

	if result.Degraded {
		w.logger.LogInfo("Could not retrieve data for %s", url)
		return nil, trackerr.NewDegradedIdentity(url, "product title not found")
	}

	key, err := market.SafeKey(result.ProductName)
	if err != nil {
		return nil, trackerr.NewValidation(url, err.Error())
	}

	unlock := w.locks.Lock(key)
	defer unlock()

	series, err := w.store.Load(ctx, key)
	if err != nil {
		return nil, trackerr.NewStorage(url, "failed to load series "+key, err)
	}
	series.Key = key

	record := series.AppendObservation(result.Observation)
	if err := w.store.Append(ctx, key, record); err != nil {
		return nil, trackerr.NewStorage(url, "failed to append to series "+key, err)
	}

	summary, err := market.Summarize(series)
	if err != nil {
		return nil, trackerr.NewStorage(url, "failed to summarize series "+key, err)
	}

	w.publish(runID, url, summary)

	return &report.ProductReport{Summary: summary, Series: series}, nil
}

func (w *Worker) publish(runID, url string, summary market.SummaryRow) {
	latest := summary.Latest
	msg := SummaryMessage{
		RunID:           runID,
		Product:         summary.Name,
		Key:             summary.Key,
		URL:             url,
		Date:            latest.DateString(),
		MarketPrice:     latest.MarketPrice.String(),
		MostRecentSale:  latest.MostRecentSale.String(),
		ListedMedian:    latest.ListedMedian.String(),
		CurrentQuantity: latest.CurrentQty.String(),
		CurrentSellers:  latest.CurrentSellers.String(),
		TotalSold:       latest.TotalSold.String(),
		PriceChange:     summary.Metrics.PriceChange,
		QuantityChange:  summary.Metrics.QuantityChange,
		DailySales:      summary.Metrics.PeriodSales,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		w.logger.LogError(url, err)
		return
	}

	if err := w.publisher.Publish(summary.Key, data); err != nil {
		w.logger.LogError(url, trackerr.NewPublisher(url, "failed to publish summary", err))
		return
	}

	if !w.opts.Production {
		w.logger.LogInfo("Published summary: %s", string(data))
	}
}

// archiveSeries uploads the series files of file-backed stores
func (w *Worker) archiveSeries(ctx context.Context, reports []report.ProductReport) {
	files, ok := w.store.(store.FileStore)
	if !ok {
		return
	}

	for _, r := range reports {
		path := files.Path(r.Series.Key)
		key := archive.ObjectKey(w.opts.ArchivePrefix+"/series", w.now(), path)
		if err := w.archiver.Upload(ctx, key, path, archive.ContentTypeFor(path)); err != nil {
			w.logger.LogError(r.Summary.Name, trackerr.NewStorage(r.Summary.Name, "failed to archive series", err))
		}
	}
}

func (w *Worker) renderReport(ctx context.Context, runID string, reports []report.ProductReport) {
	if w.renderer == nil {
		return
	}

	path, err := w.renderer.Render(ctx, reports)
	if err != nil {
		w.logger.LogError("Report", trackerr.NewReport("failed to render report", err))
		return
	}
	w.logger.LogInfo("Run %s: report written to %s", runID, path)

	key := archive.ObjectKey(w.opts.ArchivePrefix+"/reports", w.now(), path)
	if err := w.archiver.Upload(ctx, key, path, report.ContentType); err != nil {
		w.logger.LogError("Report", trackerr.NewReport("failed to archive report", err))
	}
}

// keyedMutex serialises work per product key
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Lock locks key and returns its unlock function
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
