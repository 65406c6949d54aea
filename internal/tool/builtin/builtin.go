package builtin

import (
	"net/http"
	"time"

	toolcore "github.com/harunnryd/kabu/internal/tool"
)

// Options configures the Yahoo-backed tool set. Zero values fall back
// to the public Yahoo Finance endpoints.
type Options struct {
	Client         *http.Client
	QuoteBaseURL   string
	SearchBaseURL  string
	SummaryBaseURL string
	ChartBaseURL   string
	MaxRetries     int
	RetryBaseDelay time.Duration

	HistoryRange   string
	SampleInterval int
	LastRows       int
}

const (
	defaultQuoteBaseURL   = "https://query1.finance.yahoo.com/v7/finance/quote"
	defaultSearchBaseURL  = "https://query2.finance.yahoo.com/v1/finance/search"
	defaultSummaryBaseURL = "https://query2.finance.yahoo.com/v10/finance/quoteSummary"
	defaultChartBaseURL   = "https://query1.finance.yahoo.com/v8/finance/chart"
)

// All builds the stock tool set sharing one Yahoo client.
func All(options Options) []toolcore.Tool {
	if options.QuoteBaseURL == "" {
		options.QuoteBaseURL = defaultQuoteBaseURL
	}
	if options.SearchBaseURL == "" {
		options.SearchBaseURL = defaultSearchBaseURL
	}
	if options.SummaryBaseURL == "" {
		options.SummaryBaseURL = defaultSummaryBaseURL
	}
	if options.ChartBaseURL == "" {
		options.ChartBaseURL = defaultChartBaseURL
	}
	if options.HistoryRange == "" {
		options.HistoryRange = "1y"
	}
	if options.SampleInterval <= 0 {
		options.SampleInterval = 10
	}

	yahoo := newYahooClient(options.Client, options.MaxRetries, options.RetryBaseDelay)

	return []toolcore.Tool{
		&FindTickerTool{yahoo: yahoo, searchBaseURL: options.SearchBaseURL, summaryBaseURL: options.SummaryBaseURL},
		&StockPriceTool{yahoo: yahoo, baseURL: options.QuoteBaseURL},
		&StockNewsTool{yahoo: yahoo, baseURL: options.SearchBaseURL},
		&StockDetailsTool{yahoo: yahoo, baseURL: options.SummaryBaseURL},
		&StockPatternsTool{
			yahoo:          yahoo,
			baseURL:        options.ChartBaseURL,
			historyRange:   options.HistoryRange,
			sampleInterval: options.SampleInterval,
			lastRows:       options.LastRows,
		},
	}
}
