package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	kabuErrors "github.com/harunnryd/kabu/internal/errors"
	toolcore "github.com/harunnryd/kabu/internal/tool"
)

const defaultNewsCount = 10

type stockNewsInput struct {
	Ticker string `json:"ticker" jsonschema:"description=Ticker symbol (for example: AAPL)"`
	Count  int    `json:"count,omitempty" jsonschema:"description=Maximum number of headlines to return (default 10)"`
}

type newsSearchResponse struct {
	News []struct {
		Title               string `json:"title"`
		Publisher           string `json:"publisher"`
		Link                string `json:"link"`
		ProviderPublishTime int64  `json:"providerPublishTime"`
	} `json:"news"`
}

// StockNewsTool returns recent headlines for a ticker.
type StockNewsTool struct {
	yahoo   *yahooClient
	baseURL string
}

func (t *StockNewsTool) Name() string { return "stock_news" }

func (t *StockNewsTool) Description() string {
	return "Get recent news headlines for a stock by ticker symbol."
}

func (t *StockNewsTool) Parameters() map[string]interface{} {
	return toolcore.InputSchema(&stockNewsInput{})
}

func (t *StockNewsTool) Execute(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var args stockNewsInput
	if err := json.Unmarshal(input, &args); err != nil {
		return nil, kabuErrors.InvalidInput(err.Error())
	}
	symbol := strings.ToUpper(strings.TrimSpace(args.Ticker))
	if symbol == "" {
		return nil, kabuErrors.InvalidInput("ticker is required")
	}
	count := args.Count
	if count <= 0 {
		count = defaultNewsCount
	}

	var payload newsSearchResponse
	params := url.Values{
		"q":         {symbol},
		"newsCount": {strconv.Itoa(count)},
	}
	if err := t.yahoo.getJSON(ctx, t.baseURL, params, &payload); err != nil {
		return nil, err
	}
	if len(payload.News) == 0 {
		return nil, kabuErrors.Permanent(fmt.Sprintf("no news found for %q", symbol))
	}

	items := make([]map[string]interface{}, 0, count)
	for _, item := range payload.News {
		if len(items) == count {
			break
		}
		entry := map[string]interface{}{
			"title":     item.Title,
			"publisher": item.Publisher,
			"link":      item.Link,
		}
		if item.ProviderPublishTime > 0 {
			entry["published_at"] = time.Unix(item.ProviderPublishTime, 0).UTC().Format(time.RFC3339)
		}
		items = append(items, entry)
	}

	return json.Marshal(map[string]interface{}{
		"ticker": symbol,
		"items":  items,
	})
}
