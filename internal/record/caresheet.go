package record

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CareSheet renders a record's recommendations as markdown for the detail view.
// Growth records list the harvest outlook and nutrients; disease records list
// the description and treatment steps.
func CareSheet(r *Record, now time.Time) string {
	var b strings.Builder

	title := r.Title()
	if title == "" {
		title = "Unknown " + string(r.Kind)
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "- **Label:** %s\n", r.Label)
	fmt.Fprintf(&b, "- **Detected:** %s\n", r.DetectedAt.Format("2006-01-02 15:04"))
	if r.IsPinned {
		b.WriteString("- **Pinned**\n")
	}
	b.WriteString("\n")

	switch r.Kind {
	case KindGrowth:
		writeGrowthSheet(&b, r.Growth, now)
	case KindDisease:
		writeDiseaseSheet(&b, r.Disease)
	}
	return b.String()
}

func writeGrowthSheet(b *strings.Builder, g *GrowthInfo, now time.Time) {
	if g == nil {
		return
	}
	b.WriteString("## Harvest\n\n")
	if g.HarvestEstimate != "" {
		fmt.Fprintf(b, "Estimated time to harvest: %s.\n", g.HarvestEstimate)
	}
	if g.HarvestDate != nil {
		fmt.Fprintf(b, "Expected harvest date: %s.\n", g.HarvestDate.Format("Monday, 02 January 2006"))
	}
	if days, ok := DaysRemaining(g, now); ok {
		fmt.Fprintf(b, "About %d days remaining.\n", days)
	}
	b.WriteString("\n")

	if len(g.Nutrients) == 0 {
		return
	}
	b.WriteString("## Nutrient recommendations\n\n")
	for i, n := range g.Nutrients {
		fmt.Fprintf(b, "%d. **%s**", i+1, n.Name)
		if n.Description != "" {
			fmt.Fprintf(b, ": %s", n.Description)
		}
		if r := formatRange("EC", n.ECMin, n.ECMax); r != "" {
			fmt.Fprintf(b, " (%s)", r)
		}
		if r := formatRange("pH", n.PHMin, n.PHMax); r != "" {
			fmt.Fprintf(b, " (%s)", r)
		}
		if n.Notes != "" {
			fmt.Fprintf(b, " _%s_", n.Notes)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func writeDiseaseSheet(b *strings.Builder, d *DiseaseInfo) {
	if d == nil {
		return
	}
	if d.Description != "" {
		b.WriteString("## Description\n\n")
		b.WriteString(d.Description)
		b.WriteString("\n\n")
	}
	if len(d.Treatments) == 0 {
		return
	}
	b.WriteString("## Treatment\n\n")
	for i, step := range d.Treatments {
		fmt.Fprintf(b, "%d. %s\n", i+1, step)
	}
	b.WriteString("\n")
}

func formatRange(name string, lo, hi *float64) string {
	switch {
	case lo != nil && hi != nil:
		return fmt.Sprintf("%s %s-%s", name, formatFloat(*lo), formatFloat(*hi))
	case lo != nil:
		return fmt.Sprintf("%s >= %s", name, formatFloat(*lo))
	case hi != nil:
		return fmt.Sprintf("%s <= %s", name, formatFloat(*hi))
	}
	return ""
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
