package export

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/nurapulse/pulse/core/milestone"
	"github.com/nurapulse/pulse/core/model"
)

// RenderBatteryChart writes an HTML line chart of the day's battery curve with
// a marker line at every milestone threshold.
func RenderBatteryChart(w io.Writer, ds model.DaySeries) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Battery %s", ds.VehicleID),
			Subtitle: ds.Date.Format(model.DateLayout),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Battery (%)", Min: 0, Max: 100}),
	)

	xAxis := make([]string, 0, ds.Len())
	battery := make([]opts.LineData, 0, ds.Len())
	for _, s := range ds.Samples {
		xAxis = append(xAxis, s.Timestamp.Format(milestone.ClockLayout))
		battery = append(battery, opts.LineData{Value: s.BatteryPercent})
	}

	marks := make([]charts.SeriesOpts, 0, len(milestone.Thresholds))
	for _, th := range milestone.Thresholds {
		marks = append(marks, charts.WithMarkLineNameYAxisItemOpts(opts.MarkLineNameYAxisItem{
			Name:  strconv.Itoa(th) + "%",
			YAxis: th,
		}))
	}
	line.SetXAxis(xAxis).AddSeries("Battery %", battery, marks...)

	return line.Render(w)
}

// BatteryChartHTML renders the chart into a string.
func BatteryChartHTML(ds model.DaySeries) (string, error) {
	var buf bytes.Buffer
	if err := RenderBatteryChart(&buf, ds); err != nil {
		return "", fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.String(), nil
}
