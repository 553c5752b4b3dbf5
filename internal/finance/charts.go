package finance

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/vicanso/go-charts/v2"
)

// ChartMode selects which table columns a chart shows.
type ChartMode string

const (
	ModePortfolioVsIndexDollars ChartMode = "portfolio_vs_index_dollars"
	ModePortfolioVsIndexPercent ChartMode = "portfolio_vs_index_percent"
	ModeConstituentsDollars     ChartMode = "constituents_dollars"
	ModeConstituentsPercent     ChartMode = "constituents_percent"
)

func ChartModes() []ChartMode {
	return []ChartMode{
		ModePortfolioVsIndexDollars,
		ModePortfolioVsIndexPercent,
		ModeConstituentsDollars,
		ModeConstituentsPercent,
	}
}

func ParseChartMode(s string) (ChartMode, error) {
	m := ChartMode(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range ChartModes() {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown chart mode %q", s)
}

// ParseChartModes parses a comma separated list. An empty list means every mode.
func ParseChartModes(list string) ([]ChartMode, error) {
	if strings.TrimSpace(list) == "" {
		return ChartModes(), nil
	}
	var out []ChartMode
	for _, part := range strings.Split(list, ",") {
		m, err := ParseChartMode(part)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (m ChartMode) String() string { return string(m) }

// Percent reports whether the mode plots growth rather than dollars.
func (m ChartMode) Percent() bool {
	return m == ModePortfolioVsIndexPercent || m == ModeConstituentsPercent
}

type ChartSeries struct {
	Name   string
	Values []float64
}

// ChartSpec is everything a renderer needs; it carries no table references.
type ChartSpec struct {
	Mode     ChartMode
	Title    string
	Subtitle string
	Labels   []string
	Series   []ChartSeries
}

// ChartRenderer draws a spec into an encoded image.
type ChartRenderer interface {
	Render(ctx context.Context, spec ChartSpec) ([]byte, error)
}

// ChartArtifact is an encoded image passed through from the renderer untouched.
type ChartArtifact struct {
	Mode        ChartMode
	ContentType string
	Data        []byte
}

func (a ChartArtifact) Base64() string { return base64.StdEncoding.EncodeToString(a.Data) }

// GoChartsRenderer renders line charts as PNG.
type GoChartsRenderer struct {
	Width  int
	Height int
}

func NewGoChartsRenderer() *GoChartsRenderer {
	return &GoChartsRenderer{Width: 1000, Height: 400}
}

func (r *GoChartsRenderer) Render(ctx context.Context, spec ChartSpec) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(spec.Series) == 0 {
		return nil, errors.New("no series to render")
	}
	if len(spec.Labels) < 2 {
		return nil, errors.New("not enough data points")
	}

	values := make([][]float64, len(spec.Series))
	names := make([]string, len(spec.Series))
	for i, s := range spec.Series {
		if len(s.Values) != len(spec.Labels) {
			return nil, fmt.Errorf("series %s has %d points, expected %d", s.Name, len(s.Values), len(spec.Labels))
		}
		values[i] = s.Values
		names[i] = s.Name
	}
	yMin, yMax := paddedRange(values)

	seriesList := charts.NewSeriesListDataFromValues(values, charts.ChartTypeLine)
	for i := range seriesList {
		seriesList[i].Name = names[i]
		seriesList[i].AxisIndex = 0
	}
	painter, err := charts.Render(charts.ChartOption{SeriesList: seriesList, Width: r.Width, Height: r.Height},
		charts.PNGTypeOption(),
		charts.TitleTextOptionFunc(spec.Title, spec.Subtitle),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: spec.Labels, BoundaryGap: charts.FalseFlag(), SplitNumber: splitNumber(len(spec.Labels))}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.LegendOptionFunc(charts.LegendOption{Data: names}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	buf, err := painter.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chart bytes: %w", err)
	}
	return buf, nil
}

// paddedRange is the min/max across all series widened by 5%.
func paddedRange(values [][]float64) (float64, float64) {
	minVal, maxVal := values[0][0], values[0][0]
	for _, vs := range values {
		for _, v := range vs {
			if v < minVal {
				minVal = v
			}
			if v > maxVal {
				maxVal = v
			}
		}
	}
	padding := (maxVal - minVal) * 0.05
	if padding == 0 {
		padding = maxVal * 0.05
	}
	if padding == 0 {
		padding = 1
	}
	return minVal - padding, maxVal + padding
}

func splitNumber(points int) int {
	if points > 30 {
		return 6
	}
	if n := points / 3; n >= 3 {
		return n
	}
	return 3
}
