// Package report renders an analysis snapshot as an HTML page for the
// dashboard, going through Markdown so the layout stays trivial to adjust.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/cmcnador-art/cmc-timetable/internal/analysis"
)

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// Render converts a snapshot into a standalone HTML document.
func Render(res analysis.Result, at time.Time) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html lang=\"fr\"><head><meta charset=\"utf-8\">")
	buf.WriteString("<title>Occupation des salles</title></head><body>\n")
	if err := md.Convert([]byte(Markdown(res, at)), &buf); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	buf.WriteString("</body></html>\n")
	return buf.Bytes(), nil
}

// Markdown builds the report body.
func Markdown(res analysis.Result, at time.Time) string {
	var sb strings.Builder
	sb.WriteString("# Occupation des salles\n\n")
	fmt.Fprintf(&sb, "État au %s.\n\n", at.Format("02/01/2006 15:04"))
	fmt.Fprintf(&sb, "- Groupes suivis : %d\n", res.TotalGroups)
	fmt.Fprintf(&sb, "- En séance : %d\n", res.ActiveGroups)
	fmt.Fprintf(&sb, "- Libres : %d\n\n", res.InactiveGroups)

	if len(res.LatestScans) == 0 {
		sb.WriteString("Aucun emploi du temps publié.\n")
		return sb.String()
	}

	sb.WriteString("| Groupe | Pôle | Statut | Formateurs | Salles |\n")
	sb.WriteString("| --- | --- | --- | --- | --- |\n")
	for _, scan := range res.LatestScans {
		status := "Libre"
		if scan.OccupancyRate > 0 {
			status = "En séance"
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s |\n",
			cell(scan.Group), cell(scan.Pole), status,
			cell(strings.Join(scan.Teachers, ", ")), cell(strings.Join(scan.Rooms, ", ")))
	}
	return sb.String()
}

// cell escapes the table delimiter in user-supplied values.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	if s == "" {
		return "-"
	}
	return s
}
