package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	kabuErrors "github.com/harunnryd/kabu/internal/errors"
	toolcore "github.com/harunnryd/kabu/internal/tool"
)

type stockPriceInput struct {
	Ticker string `json:"ticker" jsonschema:"description=Ticker symbol (for example: AAPL)"`
}

type quoteResponse struct {
	QuoteResponse struct {
		Result []quoteEntry `json:"result"`
	} `json:"quoteResponse"`
}

type quoteEntry struct {
	Symbol                     string  `json:"symbol"`
	LongName                   string  `json:"longName"`
	Currency                   string  `json:"currency"`
	MarketState                string  `json:"marketState"`
	RegularMarketPrice         float64 `json:"regularMarketPrice"`
	RegularMarketChange        float64 `json:"regularMarketChange"`
	RegularMarketChangePct     float64 `json:"regularMarketChangePercent"`
	RegularMarketPreviousClose float64 `json:"regularMarketPreviousClose"`
	RegularMarketOpen          float64 `json:"regularMarketOpen"`
	RegularMarketDayHigh       float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow        float64 `json:"regularMarketDayLow"`
	RegularMarketVolume        int64   `json:"regularMarketVolume"`
	RegularMarketTime          int64   `json:"regularMarketTime"`
	FiftyTwoWeekHigh           float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow            float64 `json:"fiftyTwoWeekLow"`
	MarketCap                  int64   `json:"marketCap"`
	TrailingPE                 float64 `json:"trailingPE"`
}

// StockPriceTool retrieves current market quote details for a ticker.
type StockPriceTool struct {
	yahoo   *yahooClient
	baseURL string
}

func (t *StockPriceTool) Name() string { return "stock_price" }

func (t *StockPriceTool) Description() string {
	return "Get the current price and market quote details of a stock by ticker symbol."
}

func (t *StockPriceTool) Parameters() map[string]interface{} {
	return toolcore.InputSchema(&stockPriceInput{})
}

func (t *StockPriceTool) Execute(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var args stockPriceInput
	if err := json.Unmarshal(input, &args); err != nil {
		return nil, kabuErrors.InvalidInput(err.Error())
	}
	symbol := strings.ToUpper(strings.TrimSpace(args.Ticker))
	if symbol == "" {
		return nil, kabuErrors.InvalidInput("ticker is required")
	}

	var payload quoteResponse
	if err := t.yahoo.getJSON(ctx, t.baseURL, url.Values{"symbols": {symbol}}, &payload); err != nil {
		return nil, err
	}

	for _, quote := range payload.QuoteResponse.Result {
		if !strings.EqualFold(strings.TrimSpace(quote.Symbol), symbol) {
			continue
		}

		result := map[string]interface{}{
			"symbol":         quote.Symbol,
			"name":           quote.LongName,
			"currency":       quote.Currency,
			"market_state":   quote.MarketState,
			"price":          quote.RegularMarketPrice,
			"change":         quote.RegularMarketChange,
			"change_percent": quote.RegularMarketChangePct,
			"previous_close": quote.RegularMarketPreviousClose,
			"open":           quote.RegularMarketOpen,
			"day_high":       quote.RegularMarketDayHigh,
			"day_low":        quote.RegularMarketDayLow,
			"volume":         quote.RegularMarketVolume,
			"52w_high":       quote.FiftyTwoWeekHigh,
			"52w_low":        quote.FiftyTwoWeekLow,
		}
		if quote.MarketCap > 0 {
			result["market_cap"] = quote.MarketCap
		}
		if quote.TrailingPE > 0 {
			result["trailing_pe"] = quote.TrailingPE
		}
		if quote.RegularMarketTime > 0 {
			result["timestamp"] = time.Unix(quote.RegularMarketTime, 0).UTC().Format(time.RFC3339)
		}
		return json.Marshal(result)
	}

	return nil, kabuErrors.Permanent(fmt.Sprintf("unknown symbol %q", symbol))
}
