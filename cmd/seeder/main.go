package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/finprep/qbank"
	"github.com/finprep/qbank/ingestion"
)

// sampleBank is a small built-in question bank used when no source file is
// given. It exercises every header level, both difficulties, and most types.
const sampleBank = `# Topic: Discounted Cash Flow (DCF)
## Subtopic: WACC Calculation
### Difficulty: Basic
#### Type: GenConcept

**Question:** What is the weighted average cost of capital?
**Answer:** The blended required return of a company's debt and equity holders, weighted by their share of the capital structure.

**Question:** Why is the cost of debt adjusted for taxes in WACC?
**Answer:** Interest payments are tax deductible, so the effective cost of debt is the pre-tax rate times one minus the tax rate.
**Notes for Tutor:** Ask for the formula if the explanation stays qualitative.

### Difficulty: Advanced
#### Type: Calculation

**Question:** A firm has 60% equity at a 12% cost and 40% debt at 6% pre-tax with a 25% tax rate. What is its WACC?
**Answer:** WACC = 0.6 * 12% + 0.4 * 6% * (1 - 0.25) = 7.2% + 1.8% = 9.0%.

# Topic: Accounting
## Subtopic: Financial Statements
### Difficulty: Basic
#### Type: Analysis

**Question:** Walk me through the three financial statements.
**Answer:** The income statement shows profitability over a period, the balance sheet shows financial position at a point in time, and the cash flow statement reconciles net income to the change in cash.

#### Type: Problem

**Question:** If depreciation increases by $10, how do the three statements change?
**Answer:** Pre-tax income falls $10 and net income falls $7 at a 30% tax rate. On the cash flow statement the $10 is added back, so cash rises $3. On the balance sheet PP&E falls $10, cash rises $3, and retained earnings fall $7.

# Topic: Equities
## Subtopic: Valuation
### Difficulty: Basic
#### Type: Definition

**Question:** What is enterprise value?
**Answer:** The value of a company's core operations to all capital providers: equity value plus net debt and other claims.

**Question:** What is free cash flow?
**Answer:** Cash generated by operations after capital expenditures, available to all investors.
`

var (
	seedFileName = flag.String("src", "", "question bank file to ingest instead of the built-in sample")
	dbPath       = flag.String("db", "./qbank_db", "path to the BadgerDB database directory")
	quarantine   = flag.Bool("quarantine", false, "divert flagged duplicates to staging")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

func main() {
	content := sampleBank
	if *seedFileName != "" {
		data, err := os.ReadFile(*seedFileName)
		if err != nil {
			panic(err)
		}
		content = string(data)
	}

	db, err := qbank.NewDatabase(*dbPath)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	pipeline, err := db.NewIngestionPipeline(nil)
	if err != nil {
		panic(err)
	}
	defer pipeline.Release()

	policy := &ingestion.Policy{
		FileName:   "seeder",
		UploadedBy: "seeder",
	}
	if *quarantine {
		policy.OnDuplicate = ingestion.DuplicateQuarantine
	}

	result, err := pipeline.Ingest(context.Background(), content, policy)
	if err != nil {
		panic(err)
	}

	fmt.Printf("batch %s: committed %d, quarantined %d, failed %d\n",
		result.BatchID, len(result.CommittedIDs), len(result.QuarantinedIDs), len(result.FailedIDs))
	for id, reason := range result.FailedIDs {
		fmt.Printf("  %s: %s\n", id, reason)
	}
}
