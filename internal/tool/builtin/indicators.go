package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	kabuErrors "github.com/harunnryd/kabu/internal/errors"
	toolcore "github.com/harunnryd/kabu/internal/tool"
)

type stockPatternsInput struct {
	Ticker string `json:"ticker" jsonschema:"description=Ticker symbol (for example: AAPL)"`
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// StockPatternsTool computes technical indicators and candlestick
// pattern flags from daily history: SMA(14), EMA(14), RSI(14),
// MACD(12,26,9), Bollinger(20,2), and an EMA50/EMA200 trend signal.
// Rows are downsampled so the payload stays small enough for a model
// to ingest.
type StockPatternsTool struct {
	yahoo          *yahooClient
	baseURL        string
	historyRange   string
	sampleInterval int
	lastRows       int
}

func (t *StockPatternsTool) Name() string { return "stock_patterns" }

func (t *StockPatternsTool) Description() string {
	return "Get technical analysis and candlestick pattern signals for a stock from one year of daily history."
}

func (t *StockPatternsTool) Parameters() map[string]interface{} {
	return toolcore.InputSchema(&stockPatternsInput{})
}

func (t *StockPatternsTool) Execute(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var args stockPatternsInput
	if err := json.Unmarshal(input, &args); err != nil {
		return nil, kabuErrors.InvalidInput(err.Error())
	}
	symbol := strings.ToUpper(strings.TrimSpace(args.Ticker))
	if symbol == "" {
		return nil, kabuErrors.InvalidInput("ticker is required")
	}

	var payload chartResponse
	endpoint := strings.TrimSuffix(t.baseURL, "/") + "/" + url.PathEscape(symbol)
	params := url.Values{"range": {t.historyRange}, "interval": {"1d"}}
	if err := t.yahoo.getJSON(ctx, endpoint, params, &payload); err != nil {
		return nil, err
	}
	if payload.Chart.Error != nil {
		return nil, kabuErrors.Permanent(payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, kabuErrors.Permanent(fmt.Sprintf("no history for %q", symbol))
	}

	series := payload.Chart.Result[0]
	quote := series.Indicators.Quote[0]
	n := len(series.Timestamp)
	if n == 0 || len(quote.Close) != n || len(quote.Open) != n || len(quote.High) != n || len(quote.Low) != n {
		return nil, kabuErrors.Permanent(fmt.Sprintf("malformed history for %q", symbol))
	}

	rows := computeFeatures(series.Timestamp, quote.Open, quote.High, quote.Low, quote.Close)
	if len(rows) == 0 {
		return nil, kabuErrors.Permanent(fmt.Sprintf("not enough history for %q", symbol))
	}

	if t.lastRows > 0 && len(rows) > t.lastRows {
		rows = rows[len(rows)-t.lastRows:]
	}
	if t.sampleInterval > 1 {
		sampled := make([]featureRow, 0, len(rows)/t.sampleInterval+1)
		for i := 0; i < len(rows); i += t.sampleInterval {
			sampled = append(sampled, rows[i])
		}
		rows = sampled
	}

	return json.Marshal(map[string]interface{}{
		"ticker":   symbol,
		"interval": "1d",
		"range":    t.historyRange,
		"features": rows,
	})
}

type featureRow struct {
	Date             string  `json:"date"`
	Close            float64 `json:"close"`
	SMA14            float64 `json:"sma_14"`
	EMA14            float64 `json:"ema_14"`
	RSI14            float64 `json:"rsi_14"`
	MACD             float64 `json:"macd"`
	MACDSignal       float64 `json:"macd_signal"`
	MACDHist         float64 `json:"macd_hist"`
	BBUpper          float64 `json:"bb_upper"`
	BBMiddle         float64 `json:"bb_middle"`
	BBLower          float64 `json:"bb_lower"`
	Doji             bool    `json:"doji"`
	Hammer           bool    `json:"hammer"`
	BullishEngulfing bool    `json:"bullish_engulfing"`
	BearishEngulfing bool    `json:"bearish_engulfing"`
	Trend            string  `json:"trend"`
}

// computeFeatures consolidates all indicators. The widest rolling
// window is the 20-day Bollinger band, so the first 19 rows carry
// undefined values and are dropped.
func computeFeatures(timestamps []int64, open, high, low, closes []float64) []featureRow {
	n := len(closes)
	const warmup = 19
	if n <= warmup {
		return nil
	}

	sma14 := rollingMean(closes, 14)
	ema14 := emaSeries(closes, 14)
	rsi14 := rsiSeries(closes, 14)
	macd, signal, hist := macdSeries(closes, 12, 26, 9)
	bbMiddle := rollingMean(closes, 20)
	bbStd := rollingStd(closes, 20)
	ema50 := emaSeries(closes, 50)
	ema200 := emaSeries(closes, 200)

	rows := make([]featureRow, 0, n-warmup)
	for i := warmup; i < n; i++ {
		row := featureRow{
			Date:       time.Unix(timestamps[i], 0).UTC().Format("2006-01-02"),
			Close:      round2(closes[i]),
			SMA14:      round2(sma14[i]),
			EMA14:      round2(ema14[i]),
			RSI14:      round2(rsi14[i]),
			MACD:       round4(macd[i]),
			MACDSignal: round4(signal[i]),
			MACDHist:   round4(hist[i]),
			BBUpper:    round2(bbMiddle[i] + 2*bbStd[i]),
			BBMiddle:   round2(bbMiddle[i]),
			BBLower:    round2(bbMiddle[i] - 2*bbStd[i]),
			Trend:      "downtrend",
		}
		if ema50[i] > ema200[i] {
			row.Trend = "uptrend"
		}

		bodyRange := high[i] - low[i]
		body := math.Abs(closes[i] - open[i])
		row.Doji = body <= bodyRange*0.1
		row.Hammer = body < bodyRange*0.3 && (math.Min(open[i], closes[i])-low[i]) > body*2
		row.BullishEngulfing = closes[i] > open[i] && closes[i-1] < open[i-1] &&
			(closes[i]-open[i]) > (open[i-1]-closes[i-1])
		row.BearishEngulfing = closes[i] < open[i] && closes[i-1] > open[i-1] &&
			(open[i]-closes[i]) > (closes[i-1]-open[i-1])

		rows = append(rows, row)
	}
	return rows
}

func rollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

func rollingStd(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := window - 1; i < len(values); i++ {
		var mean float64
		for j := i - window + 1; j <= i; j++ {
			mean += values[j]
		}
		mean /= float64(window)

		var variance float64
		for j := i - window + 1; j <= i; j++ {
			d := values[j] - mean
			variance += d * d
		}
		// Sample standard deviation, matching pandas' default ddof=1.
		out[i] = math.Sqrt(variance / float64(window-1))
	}
	return out
}

func emaSeries(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1.0)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

func rsiSeries(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) < 2 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1.0)

	var avgUp, avgDown float64
	for i := 1; i < len(values); i++ {
		delta := values[i] - values[i-1]
		up := math.Max(delta, 0)
		down := math.Max(-delta, 0)
		if i == 1 {
			avgUp, avgDown = up, down
		} else {
			avgUp = alpha*up + (1-alpha)*avgUp
			avgDown = alpha*down + (1-alpha)*avgDown
		}
		if avgDown == 0 {
			out[i] = 100
			continue
		}
		rs := avgUp / avgDown
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

func macdSeries(values []float64, fast, slow, signalSpan int) (macd, signal, hist []float64) {
	emaFast := emaSeries(values, fast)
	emaSlow := emaSeries(values, slow)

	macd = make([]float64, len(values))
	for i := range values {
		macd[i] = emaFast[i] - emaSlow[i]
	}
	signal = emaSeries(macd, signalSpan)

	hist = make([]float64, len(values))
	for i := range values {
		hist[i] = macd[i] - signal[i]
	}
	return macd, signal, hist
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
