package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"
)

// Printer writes a human readable summary of a report.
type Printer struct {
	w      io.Writer
	colors bool
}

// NewPrinter creates a Printer writing to w. Colors are only emitted when
// enabled and supported by the terminal.
func NewPrinter(w io.Writer, colors bool) *Printer {
	return &Printer{w: w, colors: colors && color.SupportColor()}
}

// Print writes the summary of r.
func (p *Printer) Print(r *Report) {
	p.header("CityGML statistics: %d file(s)", len(r.Files))

	p.section("Content")
	p.keyValues([][2]string{
		{"CityGML versions", joinOrNone(r.CityGMLVersions)},
		{"Features", strconv.Itoa(r.TotalFeatures())},
		{"Geometries", strconv.Itoa(r.TotalGeometries())},
		{"LODs", joinOrNone(intsToStrings(r.LODs))},
		{"Themes", joinOrNone(r.Themes)},
		{"Global appearances", yesNo(r.HasGlobalAppearances)},
		{"Implicit geometries", yesNo(r.HasImplicitGeometries)},
		{"Textures", yesNo(r.HasTextures)},
		{"Materials", yesNo(r.HasMaterials)},
	})

	if r.Extent != nil {
		p.section("Extent")
		rows := [][2]string{}
		if len(r.Extent.LowerCorner) > 0 {
			rows = append(rows,
				[2]string{"Lower corner", formatCoordinates(r.Extent.LowerCorner)},
				[2]string{"Upper corner", formatCoordinates(r.Extent.UpperCorner)},
				[2]string{"Reference system", noneIfEmpty(r.Extent.ReferenceSystem)},
			)
		}
		if len(r.Extent.ReferenceSystems) > 0 {
			rows = append(rows, [2]string{"All reference systems", strings.Join(r.Extent.ReferenceSystems, ", ")})
		}
		p.keyValues(rows)
	}

	p.counts("Features", r.Features)
	p.counts("Geometries", r.Geometries)
	p.counts("Appearances", r.Appearances)

	if len(r.GenericAttributes) > 0 {
		p.section("Generic attributes")
		names := make([]string, 0, len(r.GenericAttributes))
		for name := range r.GenericAttributes {
			names = append(names, name)
		}
		sort.Strings(names)
		rows := make([][2]string, 0, len(names))
		for _, name := range names {
			rows = append(rows, [2]string{name, strings.Join(r.GenericAttributes[name], ", ")})
		}
		p.keyValues(rows)
	}

	if len(r.Modules) > 0 {
		p.section("Modules")
		rows := make([][2]string, 0, len(r.Modules))
		for _, m := range r.Modules {
			rows = append(rows, [2]string{m.Prefix, m.Namespace})
		}
		p.keyValues(rows)
	}

	if len(r.FeatureHierarchy) > 0 {
		p.section("Feature hierarchy")
		p.hierarchy(r.FeatureHierarchy, "  ")
	}

	if len(r.MissingSchemas) > 0 {
		p.section("Missing schemas")
		for _, ns := range r.MissingSchemas {
			fmt.Fprintf(p.w, "  • %s\n", p.style(color.FgYellow, ns))
		}
		fmt.Fprintln(p.w, p.style(color.FgYellow, "  The statistics might be incomplete due to missing XML schemas."))
	}
}

// header prints a formatted header
func (p *Printer) header(format string, args ...interface{}) {
	title := fmt.Sprintf(format, args...)
	width := runewidth.StringWidth(title) + 4
	fmt.Fprintln(p.w, strings.Repeat("=", width))
	fmt.Fprintf(p.w, "  %s\n", p.style(color.OpBold, title))
	fmt.Fprintln(p.w, strings.Repeat("=", width))
}

// section prints a section header
func (p *Printer) section(title string) {
	fmt.Fprintln(p.w)
	fmt.Fprintf(p.w, "[%s]\n", p.style(color.FgCyan, title))
	fmt.Fprintln(p.w, strings.Repeat("-", runewidth.StringWidth(title)+2))
}

func (p *Printer) keyValues(rows [][2]string) {
	width := 0
	for _, row := range rows {
		width = max(width, runewidth.StringWidth(row[0]))
	}
	for _, row := range rows {
		fmt.Fprintf(p.w, "  %s  %s\n", runewidth.FillRight(row[0]+":", width+1), row[1])
	}
}

// counts prints counters by descending count, then by name.
func (p *Printer) counts(title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	p.section(title)

	names := make([]string, 0, len(counts))
	width := 0
	total := 0
	for name, n := range counts {
		names = append(names, name)
		width = max(width, runewidth.StringWidth(name))
		total += n
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})

	digits := len(strconv.Itoa(total))
	for _, name := range names {
		fmt.Fprintf(p.w, "  %s  %*d\n", runewidth.FillRight(name, width), digits, counts[name])
	}
	fmt.Fprintf(p.w, "  %s  %*d\n", runewidth.FillRight("Total", width), digits, total)
}

func (p *Printer) hierarchy(nodes []*HierarchyNode, indent string) {
	for _, n := range nodes {
		fmt.Fprintf(p.w, "%s└─ %s (%d)\n", indent, n.Name, n.Count)
		p.hierarchy(n.Children, indent+"   ")
	}
}

func (p *Printer) style(c color.Color, s string) string {
	if !p.colors {
		return s
	}
	return c.Sprint(s)
}

func formatCoordinates(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, " ")
}

func intsToStrings(values []int) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strconv.Itoa(v)
	}
	return out
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "(none)"
	}
	return strings.Join(values, ", ")
}

func noneIfEmpty(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
