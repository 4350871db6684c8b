package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"pgreconcile/reconcile"
)

func printJSON(a *app, v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResults(a *app, results []reconcile.Result) error {
	if results == nil {
		results = []reconcile.Result{}
	}
	if a.output == "json" {
		return printJSON(a, results)
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OBJECT\tSTATE\tERROR")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.ObjectName, r.State, r.ErrorMessage)
	}
	return tw.Flush()
}

func printReports(a *app, reports []reconcile.KindReport) error {
	if reports == nil {
		reports = []reconcile.KindReport{}
	}
	if a.output == "json" {
		return printJSON(a, reports)
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tOBJECT\tBEFORE\tAFTER\tERROR")
	for _, rep := range reports {
		after := map[string]reconcile.State{}
		for _, r := range rep.After {
			after[r.ObjectName] = r.State
		}
		for _, r := range rep.Before {
			end := ""
			if st, ok := after[r.ObjectName]; ok {
				end = st.String()
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", rep.Kind, r.ObjectName, r.State, end, r.ErrorMessage)
		}
		if rep.Applied != nil && rep.Applied.State != reconcile.StateSuccess {
			fmt.Fprintf(tw, "%s\t%s\t%s\t\t%s\n", rep.Kind, rep.Applied.ObjectName, rep.Applied.State, rep.Applied.ErrorMessage)
		}
	}
	return tw.Flush()
}
