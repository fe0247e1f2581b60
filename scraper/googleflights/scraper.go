package googleflights

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/Stevem319/Stevechatravel/config"
	"github.com/Stevem319/Stevechatravel/models"
	"github.com/Stevem319/Stevechatravel/scraper"
	"github.com/Stevem319/Stevechatravel/utils"
)

const providerName = "google-flights"

var stopCountRegex = regexp.MustCompile(`^(\d+)\s+stops?`)

// Scraper prices requests by rendering the Google Flights results page in headless Chrome.
// One browser is shared across searches; each search gets its own tab.
type Scraper struct {
	baseURL     string
	currency    string
	headless    bool
	execPath    string
	logger      *utils.Logger
	rateLimiter *utils.RateLimiter

	mu            sync.Mutex
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
}

// NewScraper creates a Scraper. The browser starts on the first search.
func NewScraper(cfg *config.Config, logger *utils.Logger) *Scraper {
	return &Scraper{
		baseURL:     cfg.GoogleFlightsURL,
		currency:    cfg.Currency,
		headless:    cfg.Headless,
		execPath:    cfg.ChromePath,
		logger:      logger,
		rateLimiter: utils.NewRateLimiter(cfg.RateLimitDelay),
	}
}

func (s *Scraper) Name() string {
	return providerName
}

// browser lazily starts the shared Chrome instance. Tabs created from the
// returned context attach to it instead of launching their own browser.
func (s *Scraper) browser() (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.browserCtx != nil {
		return s.browserCtx, nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("log-level", "3"), // suppress Chrome logs
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
		chromedp.WindowSize(1920, 1080),
	)
	if s.execPath != "" {
		opts = append(opts, chromedp.ExecPath(s.execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	cancel := func() {
		cancelCtx()
		cancelAlloc()
	}

	// an empty Run launches the browser so later tabs share it
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	s.browserCtx = ctx
	s.cancelBrowser = cancel
	return ctx, nil
}

// Close shuts down the browser if it was started
func (s *Scraper) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelBrowser != nil {
		s.cancelBrowser()
		s.browserCtx = nil
		s.cancelBrowser = nil
	}
	return nil
}

// BuildURL renders the search page address for req
func (s *Scraper) BuildURL(req models.SearchRequest) string {
	q := fmt.Sprintf("Flights from %s to %s on %s", req.Origin, req.Destination, req.DepartureDate)
	if req.ReturnDate != nil {
		q += " returning " + req.ReturnDate.String()
	} else {
		q += " one way"
	}
	if req.Seat != "" && req.Seat != "economy" {
		q += " " + req.Seat
	}

	v := url.Values{}
	v.Set("hl", "en")
	v.Set("q", q)
	v.Set("curr", s.currency)
	return s.baseURL + "?" + v.Encode()
}

// card is one result row as extracted from the page
type card struct {
	Carrier    string `json:"name"`
	Fare       string `json:"price"`
	Length     string `json:"duration"`
	DepartAt   string `json:"depart"`
	ArriveAt   string `json:"arrive"`
	StopsLabel string `json:"stops"`
	StopsDesc  string `json:"stopsInfo"`
}

func (c card) CarrierName() string   { return c.Carrier }
func (c card) Price() string         { return c.Fare }
func (c card) Duration() string      { return c.Length }
func (c card) DepartureTime() string { return c.DepartAt }
func (c card) ArrivalTime() string   { return c.ArriveAt }
func (c card) Stops() string         { return stopCount(c.StopsLabel) }
func (c card) StopsText() string     { return c.StopsDesc }

// stopCount turns "Nonstop" or "2 stops" into a count, anything else into "Unknown"
func stopCount(text string) string {
	text = strings.TrimSpace(text)
	if strings.EqualFold(text, "nonstop") {
		return "0"
	}
	if m := stopCountRegex.FindStringSubmatch(text); len(m) == 2 {
		return m[1]
	}
	return "Unknown"
}

// Search loads the results page for req and extracts every priced itinerary.
// A page that renders with no offers yields an empty result, not an error.
func (s *Scraper) Search(ctx context.Context, req models.SearchRequest) ([]models.Itinerary, error) {
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return nil, scraper.NewProviderError(providerName, err)
	}

	browserCtx, err := s.browser()
	if err != nil {
		return nil, scraper.NewProviderError(providerName, err)
	}

	tabCtx, cancelTab := chromedp.NewContext(browserCtx)
	defer cancelTab()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	pageURL := s.BuildURL(req)
	s.logger.Debug("Loading %s", pageURL)

	if err := chromedp.Run(tabCtx, chromedp.Navigate(pageURL)); err != nil {
		return nil, scraper.NewProviderError(providerName, fmt.Errorf("navigate failed: %w", err))
	}

	waitCtx, cancelWait := context.WithTimeout(tabCtx, 20*time.Second)
	waitErr := chromedp.Run(waitCtx, chromedp.WaitVisible(`li [aria-label*="US dollars"], [role="main"] ul li`, chromedp.ByQuery))
	cancelWait()
	if ctx.Err() != nil {
		return nil, scraper.NewProviderError(providerName, ctx.Err())
	}
	if waitErr != nil {
		// fallback: results may still be rendering
		_ = chromedp.Run(tabCtx, chromedp.Sleep(3*time.Second))
	}

	var cards []card
	err = chromedp.Run(tabCtx, chromedp.Evaluate(`
		(function() {
			var results = [];
			var rows = document.querySelectorAll('[role="main"] ul li');
			rows.forEach(function(row) {
				var text = function(sel) {
					var el = row.querySelector(sel);
					return el ? el.innerText.trim() : '';
				};

				// Price: first span that starts with a currency symbol
				var price = '';
				var spans = row.querySelectorAll('span');
				for (var i = 0; i < spans.length; i++) {
					var t = spans[i].innerText.trim();
					if (/^[^\d\s]{1,3}\d[\d,]*$/.test(t)) {
						price = t;
						break;
					}
				}
				if (!price) return;

				var times = row.querySelectorAll('[aria-label^="Departure time"], [aria-label^="Arrival time"]');
				var depart = times.length > 0 ? times[0].innerText.trim() : '';
				var arrive = times.length > 1 ? times[1].innerText.trim() : '';

				var stopsEl = row.querySelector('[aria-label*="stop flight"], [aria-label*="Nonstop"]');
				var stops = stopsEl ? stopsEl.innerText.trim() : '';
				var stopsInfo = stopsEl ? (stopsEl.getAttribute('aria-label') || '') : '';

				var durationEl = row.querySelector('[aria-label^="Total duration"]');
				var duration = durationEl ? durationEl.innerText.trim() : '';

				var nameEl = row.querySelector('[aria-label*="Leaves"]') || row.querySelector('div > span');
				var name = nameEl ? nameEl.innerText.replace(/\n/g, '').trim() : text('span');

				results.push({
					name: name, price: price, duration: duration,
					depart: depart, arrive: arrive, stops: stops, stopsInfo: stopsInfo
				});
			});
			return results;
		})()
	`, &cards))
	if err != nil {
		return nil, scraper.NewProviderError(providerName, fmt.Errorf("card JS failed: %w", err))
	}

	seen := utils.NewSeenSet()
	itineraries := make([]models.Itinerary, 0, len(cards))
	for _, c := range cards {
		sig := strings.Join([]string{c.Carrier, c.Fare, c.DepartAt, c.ArriveAt, c.Length}, "|")
		if !seen.Add(sig) {
			continue
		}
		itineraries = append(itineraries, c)
	}

	s.logger.Debug("%s-%s %s: %d itineraries", req.Origin, req.Destination, req.DepartureDate, len(itineraries))
	return itineraries, nil
}
