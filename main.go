package main

import (
	"fmt"
	"log"

	"github.com/asaidimu/go-sieve/core/engine"
	"github.com/asaidimu/go-sieve/core/filter"
	"github.com/asaidimu/go-sieve/core/record"
	"github.com/fatih/color"
	"go.uber.org/zap"
)

// Demo walkthrough of the sandboxed predicate evaluation engine: both entry
// points, legitimate queries, and the probes the sandbox exists to refuse.
func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	caps, err := filter.NewCapabilityTable(filter.CapabilityConfig{
		Fields: map[string]record.Kind{
			"name":    record.KindString,
			"price":   record.KindNumber,
			"inStock": record.KindBoolean,
			"tags":    record.KindStringSet,
		},
	})
	if err != nil {
		logger.Fatal("Failed to build capability table", zap.Error(err))
	}
	sieve, err := engine.New(caps, &engine.Options{Logger: logger})
	if err != nil {
		logger.Fatal("Failed to create engine", zap.Error(err))
	}

	catalog := make([]record.Record, 0, 3)
	for _, row := range []map[string]any{
		{"name": "Laptop Pro", "price": 999.99, "inStock": true, "tags": []string{"electronics", "computers"}},
		{"name": "Wireless Mouse", "price": 24.50, "inStock": true, "tags": []string{"electronics"}},
		{"name": "Standing Desk", "price": 450.00, "inStock": false, "tags": []string{"furniture"}},
	} {
		rec, err := record.FromMap(row)
		if err != nil {
			logger.Fatal("Failed to build record", zap.Error(err))
		}
		catalog = append(catalog, rec)
	}

	heading := color.New(color.FgCyan, color.Bold)
	ok := color.New(color.FgGreen)
	refused := color.New(color.FgRed)

	heading.Println("== Expression path ==")
	for _, query := range []string{
		"price < 100",
		"name contains 'Laptop' and price < 1000",
		"inStock == true",
		"size(tags) > 1",
	} {
		matched, err := sieve.FilterExpression(query, catalog)
		if err != nil {
			refused.Printf("  %-45s -> %v\n", query, err)
			continue
		}
		ok.Printf("  %-45s -> %d match(es)\n", query, len(matched))
		for _, rec := range matched {
			name, _ := rec.Field("name")
			fmt.Printf("      %v\n", name.Interface())
		}
	}

	heading.Println("== Structured path ==")
	matched, err := sieve.Filter("inStock", filter.OperatorEq, true, catalog)
	if err != nil {
		logger.Fatal("Structured filter failed", zap.Error(err))
	}
	ok.Printf("  inStock eq true -> %d match(es)\n", len(matched))

	heading.Println("== Sandbox probes ==")
	for _, probe := range []string{
		"runtime.exec('id')",
		"new ProcessBuilder('env').start()",
		"${7*7}",
		"T(java.lang.Runtime).getRuntime().exec('id')",
		"secret == 'x'",
	} {
		if _, err := sieve.FilterExpression(probe, catalog); err != nil {
			refused.Printf("  %-45s -> refused\n", probe)
		} else {
			// "secret" passes the shape gate but violates the capability
			// table per record, so the result set is empty.
			refused.Printf("  %-45s -> no records released\n", probe)
		}
	}
}
