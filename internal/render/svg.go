package render

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/Iron-Ham/gantry/internal/schedule"
)

const svgLabelWidth = 200.0

// WriteSVG writes m as a standalone SVG document. Row labels occupy a fixed
// column on the left; the timeline is translated to its right.
func WriteSVG(w io.Writer, m Model) error {
	bw := bufio.NewWriter(w)
	width := svgLabelWidth + m.Width
	height := m.Height

	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s" font-family="sans-serif" font-size="11">`+"\n",
		num(width), num(height), num(width), num(height))
	fmt.Fprintf(bw, `<rect x="0" y="0" width="%s" height="%s" fill="#ffffff"/>`+"\n", num(width), num(height))

	for _, row := range m.Rows {
		weight := "normal"
		if row.Kind == schedule.RowPhase.String() {
			weight = "bold"
			fmt.Fprintf(bw, `<rect x="0" y="%s" width="%s" height="%s" fill="%s"/>`+"\n",
				num(row.Y), num(width), num(row.H), ColorHeader)
		}
		fmt.Fprintf(bw, `<text x="%s" y="%s" font-weight="%s" fill="%s">%s</text>`+"\n",
			num(8+float64(row.Depth)*12), num(row.Y+row.H/2+4), weight, ColorText, escape(row.Label))
	}

	fmt.Fprintf(bw, `<g transform="translate(%s,0)">`+"\n", num(svgLabelWidth))
	for _, p := range m.Primitives {
		writePrimitive(bw, p)
	}
	bw.WriteString("</g>\n</svg>\n")
	return bw.Flush()
}

func writePrimitive(w *bufio.Writer, p Primitive) {
	g := p.Geometry
	switch p.Kind {
	case KindBand, KindTick:
		fmt.Fprintf(w, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s" stroke="#d1d5db"/>`+"\n",
			num(g.X), num(g.Y), num(g.W), num(g.H), ColorHeader)
		fmt.Fprintf(w, `<text x="%s" y="%s" fill="%s">%s</text>`+"\n",
			num(g.X+4), num(g.Y+g.H/2+4), ColorText, escape(p.Label))
	case KindGridline:
		fmt.Fprintf(w, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s"/>`+"\n",
			num(g.X), num(g.Y), num(g.X), num(g.Y+g.H), ColorGrid)
	case KindPhaseBar:
		fmt.Fprintf(w, `<rect x="%s" y="%s" width="%s" height="%s" rx="3" fill="%s"><title>%s</title></rect>`+"\n",
			num(g.X), num(g.Y), num(g.W), num(g.H), ColorPhase, escape(p.Label))
	case KindTaskBar:
		stroke := "none"
		switch {
		case p.Active || p.Pending:
			stroke = ColorActive
		case p.Delayed:
			stroke = ColorDelayed
		}
		opacity := "1"
		if p.Pending {
			opacity = "0.6"
		}
		fmt.Fprintf(w, `<rect x="%s" y="%s" width="%s" height="%s" rx="3" fill="%s" stroke="%s" stroke-width="2" opacity="%s"><title>%s</title></rect>`+"\n",
			num(g.X), num(g.Y), num(g.W), num(g.H), PriorityColor(p.Priority), stroke, opacity, escape(p.Label))
	case KindProgress:
		fmt.Fprintf(w, `<rect x="%s" y="%s" width="%s" height="%s" rx="3" fill="%s" opacity="0.35"/>`+"\n",
			num(g.X), num(g.Y), num(g.W), num(g.H), ColorProgress)
	case KindHandle:
		fmt.Fprintf(w, `<rect x="%s" y="%s" width="%s" height="%s" fill="#000000" opacity="0.15"/>`+"\n",
			num(g.X), num(g.Y), num(g.W), num(g.H))
	case KindToday:
		fmt.Fprintf(w, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="2"/>`+"\n",
			num(g.X), num(g.Y), num(g.X), num(g.Y+g.H), ColorToday)
	}
}

func num(f float64) string {
	s := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", f), "0"), ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
