package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	kabuErrors "github.com/harunnryd/kabu/internal/errors"
	toolcore "github.com/harunnryd/kabu/internal/tool"
)

type stockDetailsInput struct {
	Ticker string `json:"ticker" jsonschema:"description=Ticker symbol (for example: AAPL)"`
}

// rawValue is Yahoo's {raw, fmt} number wrapper used throughout the
// quoteSummary modules.
type rawValue struct {
	Raw float64 `mapstructure:"raw"`
	Fmt string  `mapstructure:"fmt"`
}

func (v rawValue) entry() map[string]interface{} {
	if v.Fmt == "" && v.Raw == 0 {
		return nil
	}
	return map[string]interface{}{"raw": v.Raw, "fmt": v.Fmt}
}

type balanceSheetStatement struct {
	EndDate                rawValue `mapstructure:"endDate"`
	TotalAssets            rawValue `mapstructure:"totalAssets"`
	TotalLiab              rawValue `mapstructure:"totalLiab"`
	TotalStockholderEquity rawValue `mapstructure:"totalStockholderEquity"`
	Cash                   rawValue `mapstructure:"cash"`
	LongTermDebt           rawValue `mapstructure:"longTermDebt"`
}

type incomeStatement struct {
	EndDate         rawValue `mapstructure:"endDate"`
	TotalRevenue    rawValue `mapstructure:"totalRevenue"`
	GrossProfit     rawValue `mapstructure:"grossProfit"`
	OperatingIncome rawValue `mapstructure:"operatingIncome"`
	NetIncome       rawValue `mapstructure:"netIncome"`
}

type cashflowStatement struct {
	EndDate                          rawValue `mapstructure:"endDate"`
	TotalCashFromOperatingActivities rawValue `mapstructure:"totalCashFromOperatingActivities"`
	CapitalExpenditures              rawValue `mapstructure:"capitalExpenditures"`
	Depreciation                     rawValue `mapstructure:"depreciation"`
	DividendsPaid                    rawValue `mapstructure:"dividendsPaid"`
}

type earningsPeriod struct {
	Date     string   `mapstructure:"date"`
	Revenue  rawValue `mapstructure:"revenue"`
	Earnings rawValue `mapstructure:"earnings"`
}

type summaryModules struct {
	Price struct {
		LongName  string   `mapstructure:"longName"`
		Currency  string   `mapstructure:"currency"`
		Symbol    string   `mapstructure:"symbol"`
		MarketCap rawValue `mapstructure:"marketCap"`
	} `mapstructure:"price"`
	BalanceSheetHistory struct {
		BalanceSheetStatements []balanceSheetStatement `mapstructure:"balanceSheetStatements"`
	} `mapstructure:"balanceSheetHistory"`
	IncomeStatementHistory struct {
		IncomeStatementHistory []incomeStatement `mapstructure:"incomeStatementHistory"`
	} `mapstructure:"incomeStatementHistory"`
	CashflowStatementHistory struct {
		CashflowStatements []cashflowStatement `mapstructure:"cashflowStatements"`
	} `mapstructure:"cashflowStatementHistory"`
	Earnings struct {
		FinancialsChart struct {
			Yearly    []earningsPeriod `mapstructure:"yearly"`
			Quarterly []earningsPeriod `mapstructure:"quarterly"`
		} `mapstructure:"financialsChart"`
	} `mapstructure:"earnings"`
}

// StockDetailsTool returns a fundamentals snapshot: balance sheet,
// income statement, cash flow, and earnings history.
type StockDetailsTool struct {
	yahoo   *yahooClient
	baseURL string
}

func (t *StockDetailsTool) Name() string { return "stock_details" }

func (t *StockDetailsTool) Description() string {
	return "Get company fundamentals for a ticker: balance sheet, income statement, cash flow, and earnings."
}

func (t *StockDetailsTool) Parameters() map[string]interface{} {
	return toolcore.InputSchema(&stockDetailsInput{})
}

func (t *StockDetailsTool) Execute(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var args stockDetailsInput
	if err := json.Unmarshal(input, &args); err != nil {
		return nil, kabuErrors.InvalidInput(err.Error())
	}
	symbol := strings.ToUpper(strings.TrimSpace(args.Ticker))
	if symbol == "" {
		return nil, kabuErrors.InvalidInput("ticker is required")
	}

	var payload struct {
		QuoteSummary struct {
			Result []map[string]interface{} `json:"result"`
			Error  *struct {
				Description string `json:"description"`
			} `json:"error"`
		} `json:"quoteSummary"`
	}

	endpoint := strings.TrimSuffix(t.baseURL, "/") + "/" + url.PathEscape(symbol)
	params := url.Values{"modules": {
		"price,balanceSheetHistory,incomeStatementHistory,cashflowStatementHistory,earnings",
	}}
	if err := t.yahoo.getJSON(ctx, endpoint, params, &payload); err != nil {
		return nil, err
	}
	if len(payload.QuoteSummary.Result) == 0 {
		if payload.QuoteSummary.Error != nil {
			return nil, kabuErrors.Permanent(payload.QuoteSummary.Error.Description)
		}
		return nil, kabuErrors.Permanent(fmt.Sprintf("no fundamentals for %q", symbol))
	}

	// Yahoo wraps every number as {raw, fmt}; mapstructure lifts the
	// loosely typed module maps into the structs above. Weak typing is
	// needed because yearly earnings dates arrive as bare integers.
	var modules summaryModules
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &modules,
	})
	if err != nil {
		return nil, kabuErrors.Internal(err.Error())
	}
	if err := decoder.Decode(payload.QuoteSummary.Result[0]); err != nil {
		return nil, kabuErrors.Permanent(fmt.Sprintf("decode fundamentals: %v", err))
	}

	result := map[string]interface{}{
		"company_information": map[string]interface{}{
			"symbol":     symbol,
			"name":       modules.Price.LongName,
			"currency":   modules.Price.Currency,
			"market_cap": modules.Price.MarketCap.entry(),
		},
		"balance_sheet":       balanceSheets(modules.BalanceSheetHistory.BalanceSheetStatements),
		"income_statement":    incomeStatements(modules.IncomeStatementHistory.IncomeStatementHistory),
		"cash_flow_statement": cashflows(modules.CashflowStatementHistory.CashflowStatements),
		"earnings": map[string]interface{}{
			"yearly":    earningsRows(modules.Earnings.FinancialsChart.Yearly),
			"quarterly": earningsRows(modules.Earnings.FinancialsChart.Quarterly),
		},
	}
	return json.Marshal(result)
}

func balanceSheets(statements []balanceSheetStatement) []map[string]interface{} {
	rows := make([]map[string]interface{}, 0, len(statements))
	for _, s := range statements {
		rows = append(rows, map[string]interface{}{
			"end_date":                 endDate(s.EndDate),
			"total_assets":             s.TotalAssets.entry(),
			"total_liabilities":        s.TotalLiab.entry(),
			"total_stockholder_equity": s.TotalStockholderEquity.entry(),
			"cash":                     s.Cash.entry(),
			"long_term_debt":           s.LongTermDebt.entry(),
		})
	}
	return rows
}

func incomeStatements(statements []incomeStatement) []map[string]interface{} {
	rows := make([]map[string]interface{}, 0, len(statements))
	for _, s := range statements {
		rows = append(rows, map[string]interface{}{
			"end_date":         endDate(s.EndDate),
			"total_revenue":    s.TotalRevenue.entry(),
			"gross_profit":     s.GrossProfit.entry(),
			"operating_income": s.OperatingIncome.entry(),
			"net_income":       s.NetIncome.entry(),
		})
	}
	return rows
}

func cashflows(statements []cashflowStatement) []map[string]interface{} {
	rows := make([]map[string]interface{}, 0, len(statements))
	for _, s := range statements {
		rows = append(rows, map[string]interface{}{
			"end_date":            endDate(s.EndDate),
			"operating_cash_flow": s.TotalCashFromOperatingActivities.entry(),
			"capital_expenditure": s.CapitalExpenditures.entry(),
			"depreciation":        s.Depreciation.entry(),
			"dividends_paid":      s.DividendsPaid.entry(),
		})
	}
	return rows
}

func earningsRows(periods []earningsPeriod) []map[string]interface{} {
	rows := make([]map[string]interface{}, 0, len(periods))
	for _, p := range periods {
		rows = append(rows, map[string]interface{}{
			"date":     p.Date,
			"revenue":  p.Revenue.entry(),
			"earnings": p.Earnings.entry(),
		})
	}
	return rows
}

func endDate(v rawValue) string {
	if v.Fmt != "" {
		return v.Fmt
	}
	if v.Raw > 0 {
		return time.Unix(int64(v.Raw), 0).UTC().Format("2006-01-02")
	}
	return ""
}
