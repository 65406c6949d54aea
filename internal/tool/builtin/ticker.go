package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	kabuErrors "github.com/harunnryd/kabu/internal/errors"
	toolcore "github.com/harunnryd/kabu/internal/tool"
)

type findTickerInput struct {
	Name string `json:"name" jsonschema:"description=Company name to resolve (for example: Apple Inc)"`
}

type searchResponse struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		ShortName string `json:"shortname"`
		LongName  string `json:"longname"`
		Exchange  string `json:"exchange"`
		QuoteType string `json:"quoteType"`
	} `json:"quotes"`
}

type assetProfileResponse struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile struct {
				Sector   string `json:"sector"`
				Industry string `json:"industry"`
				Website  string `json:"website"`
			} `json:"assetProfile"`
		} `json:"result"`
	} `json:"quoteSummary"`
}

// FindTickerTool resolves a company name to a ticker symbol and a
// short profile, picking the top search match like the upstream
// symbol search does.
type FindTickerTool struct {
	yahoo          *yahooClient
	searchBaseURL  string
	summaryBaseURL string
}

func (t *FindTickerTool) Name() string { return "find_ticker" }

func (t *FindTickerTool) Description() string {
	return "Resolve a company name to its ticker symbol and describe the company (sector, industry, website)."
}

func (t *FindTickerTool) Parameters() map[string]interface{} {
	return toolcore.InputSchema(&findTickerInput{})
}

func (t *FindTickerTool) Execute(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var args findTickerInput
	if err := json.Unmarshal(input, &args); err != nil {
		return nil, kabuErrors.InvalidInput(err.Error())
	}
	name := strings.TrimSpace(args.Name)
	if name == "" {
		return nil, kabuErrors.InvalidInput("name is required")
	}

	var search searchResponse
	params := url.Values{"q": {name}, "lang": {"en"}}
	if err := t.yahoo.getJSON(ctx, t.searchBaseURL, params, &search); err != nil {
		return nil, err
	}
	if len(search.Quotes) == 0 {
		return nil, kabuErrors.Permanent(fmt.Sprintf("no tickers found for %q", name))
	}

	top := search.Quotes[0]
	result := map[string]interface{}{
		"symbol":     top.Symbol,
		"short_name": top.ShortName,
		"long_name":  top.LongName,
		"exchange":   top.Exchange,
		"quote_type": top.QuoteType,
	}

	// Profile enrichment is best effort; a missing assetProfile must
	// not fail ticker resolution.
	var profile assetProfileResponse
	profileURL := strings.TrimSuffix(t.summaryBaseURL, "/") + "/" + url.PathEscape(top.Symbol)
	if err := t.yahoo.getJSON(ctx, profileURL, url.Values{"modules": {"assetProfile"}}, &profile); err == nil {
		if len(profile.QuoteSummary.Result) > 0 {
			p := profile.QuoteSummary.Result[0].AssetProfile
			result["sector"] = p.Sector
			result["industry"] = p.Industry
			result["website"] = p.Website
		}
	}

	return json.Marshal(result)
}
