package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"ticketclassifier/pkg/categorizer"
)

var (
	headingColor = color.New(color.FgCyan, color.Bold)
	labelColor   = color.New(color.Bold)
)

var headings = map[categorizer.Case]string{
	categorizer.CaseSingle:     "Single Category Classification",
	categorizer.CaseMultiIssue: "Multi-Issue Extraction",
	categorizer.CaseDynamic:    "Dynamic Category Classification",
}

// PrintResult writes a human readable rendering of result to w. ticket is
// only used for the headline line and may be empty.
func PrintResult(w io.Writer, ticket categorizer.Ticket, result categorizer.Result) error {
	heading, ok := headings[result.Case]
	if !ok {
		return fmt.Errorf("cannot format result for invalid case %d", result.Case)
	}

	if headline := Headline(string(ticket), defaultHeadlineLen); headline != "" {
		fmt.Fprintf(w, "%s %s\n\n", labelColor.Sprint("Ticket:"), headline)
	}
	headingColor.Fprintf(w, "=== %s ===\n", heading)

	switch result.Case {
	case categorizer.CaseSingle:
		printSingle(w, result.Single)
	case categorizer.CaseMultiIssue:
		printIssues(w, result.Issues)
	case categorizer.CaseDynamic:
		printDynamic(w, result.Dynamic)
	}
	return nil
}

func printSingle(w io.Writer, single *categorizer.SingleClassification) {
	if single == nil {
		fmt.Fprintln(w, "No single category classification available.")
		return
	}
	fmt.Fprintf(w, "%s %s\n", labelColor.Sprint("Category:"), single.Category)
	fmt.Fprintf(w, "%s %s\n", labelColor.Sprint("Subcategory:"), single.Subcategory)
}

func printIssues(w io.Writer, issues []categorizer.IssueClassification) {
	if len(issues) == 0 {
		fmt.Fprintln(w, "No multi-issue extraction available.")
		return
	}
	table := newTable(w, "#", "Category", "Subcategories", "Reasons")
	for i, issue := range issues {
		table.Append([]string{
			strconv.Itoa(i + 1),
			issue.Category,
			joinOrNA(issue.Subcategories, ", "),
			joinOrNA(issue.Reason, "\n"),
		})
	}
	table.Render()
}

func printDynamic(w io.Writer, items []categorizer.DynamicClassification) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No dynamic category classification available.")
		return
	}
	table := newTable(w, "#", "Category", "Subcategories", "Comment")
	for i, item := range items {
		comment := item.Comment
		if comment == "" {
			comment = "N/A"
		}
		table.Append([]string{
			strconv.Itoa(i + 1),
			item.Category,
			joinOrNA(item.Subcategories, ", "),
			comment,
		})
	}
	table.Render()
}

// PrintTaxonomy lists every category with its subcategories, one row per
// subcategory.
func PrintTaxonomy(w io.Writer, taxonomy *categorizer.Taxonomy) {
	table := newTable(w, "Category", "Description", "Subcategory", "Subcategory Description")
	table.SetRowLine(false)
	for _, cat := range taxonomy.Categories() {
		for i, sub := range cat.Subcategories {
			name, desc := "", ""
			if i == 0 {
				name, desc = cat.Name, orDash(cat.Description)
			}
			table.Append([]string{name, desc, sub.Name, orDash(sub.Description)})
		}
	}
	table.Render()
	fmt.Fprintf(w, "%d categories\n", taxonomy.Len())
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetBorder(true)
	table.SetRowLine(true)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func joinOrNA(items []string, sep string) string {
	if len(items) == 0 {
		return "N/A"
	}
	return strings.Join(items, sep)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
