package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"

	dice "github.com/uob-dice/dice-lib"
)

var (
	glossary     = app.Command("glossary", "Explain the terms used by DICE.")
	glossaryTerm = glossary.Arg("term", "Only explain this term.").String()
)

func performGlossary(ctx context.Context) error {
	terms := make([]string, 0, len(dice.Glossary))
	if len(*glossaryTerm) > 0 {
		if _, ok := dice.Explain(*glossaryTerm); !ok {
			_, _ = fmt.Fprintln(os.Stderr, "Unknown term:", *glossaryTerm)
			return &MainError{error: fmt.Errorf("unknown term %q", *glossaryTerm), ExitCode: 2}
		}
		terms = append(terms, *glossaryTerm)
	} else {
		for term := range dice.Glossary {
			terms = append(terms, term)
		}
		sort.Slice(terms, func(i, j int) bool {
			return strings.ToLower(terms[i]) < strings.ToLower(terms[j])
		})
	}

	switch *appFormat {
	case "text":
		table := tablewriter.NewWriter(os.Stdout)
		table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
		table.SetCenterSeparator("|")
		table.SetHeader([]string{"Term", "Explanation"})
		for _, term := range terms {
			table.Append([]string{term, dice.Glossary[term]})
		}
		table.Render()
	case "json":
		enc := json.NewEncoder(os.Stdout)
		for _, term := range terms {
			err := enc.Encode(map[string]string{"term": term, "explanation": dice.Glossary[term]})
			if err != nil {
				return err
			}
		}
	default:
		panic(fmt.Sprintf("glossary: unsupported format '%s'", *appFormat))
	}

	return nil
}
