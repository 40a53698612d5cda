package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gnana997/nextscope/pkg/scanner"
	"github.com/gnana997/nextscope/pkg/strategy"
)

func TestPrintStrategyChanges(t *testing.T) {
	previous := indexStrategies(&scanner.StrategyReport{Files: []scanner.FileStrategy{
		{Path: "app/page.tsx", Strategy: strategy.Static},
		{Path: "app/cart/page.tsx", Strategy: strategy.Static},
		{Path: "app/old/page.tsx", Strategy: strategy.Incremental},
	}})
	report := &scanner.StrategyReport{
		Files: []scanner.FileStrategy{
			{Path: "app/page.tsx", Strategy: strategy.Static},
			{Path: "app/cart/page.tsx", Strategy: strategy.ServerRendered},
			{Path: "app/new/page.tsx", Strategy: strategy.Incremental},
		},
		Skipped: []scanner.SkippedFile{{Path: "app/broken/page.tsx", Error: "read failed"}},
	}

	var w bytes.Buffer
	printStrategyChanges(&w, previous, report, 3)
	out := w.String()

	assert.Contains(t, out, "~ SSG -> SSR  app/cart/page.tsx")
	assert.Contains(t, out, "+ ISR  app/new/page.tsx")
	assert.Contains(t, out, "- ISR  app/old/page.tsx")
	assert.Contains(t, out, "! app/broken/page.tsx  read failed")
	assert.NotContains(t, out, "app/page.tsx\n")
}

func TestPrintStrategyChanges_NoChanges(t *testing.T) {
	files := []scanner.FileStrategy{{Path: "app/page.tsx", Strategy: strategy.Static}}
	previous := indexStrategies(&scanner.StrategyReport{Files: files})

	var w bytes.Buffer
	printStrategyChanges(&w, previous, &scanner.StrategyReport{Files: files}, 2)
	assert.Contains(t, w.String(), "2 file(s) changed, no strategy changes")
}
