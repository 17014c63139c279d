package accountstats

import (
	"math"
	"time"

	"github.com/prometheus/common/model"
)

// GroupKey is the label-value tuple a series is aggregated by
type GroupKey = model.LabelSet

// Point is one sample of a series
type Point struct {
	Timestamp time.Time
	Value     float64
}

// TimeSeries is one backend series, timestamps strictly increasing
type TimeSeries struct {
	Labels model.LabelSet
	Points []Point
}

// ChartSeries is a named line of a chart
type ChartSeries struct {
	Name    string
	Stacked bool
	Points  []Point
}

// ChartPayload is the chart-ready answer to one request. Lines keep the order
// they were produced in and are not sorted.
type ChartPayload struct {
	Lines []ChartSeries
	Unit  string
}

// ChartLine is the wire form of a ChartSeries
type ChartLine struct {
	X          []string  `json:"x"`
	Y          []float64 `json:"y"`
	Type       string    `json:"type"`
	StackGroup string    `json:"stackgroup,omitempty"`
	Name       string    `json:"name"`
}

type Axis struct {
	TickSuffix string `json:"ticksuffix"`
}

type Layout struct {
	YAxis Axis `json:"yaxis"`
}

// ChartResponse is the JSON body served for a chart
type ChartResponse struct {
	Lines  []ChartLine `json:"lines"`
	Layout *Layout     `json:"layout,omitempty"`
}

// Response converts the payload to its wire form with timestamps in loc.
// Non-finite samples are left out since JSON cannot carry them.
func (p *ChartPayload) Response(loc *time.Location) ChartResponse {
	if loc == nil {
		loc = time.Local
	}
	resp := ChartResponse{Lines: make([]ChartLine, 0, len(p.Lines))}
	for _, s := range p.Lines {
		line := ChartLine{
			X:    make([]string, 0, len(s.Points)),
			Y:    make([]float64, 0, len(s.Points)),
			Type: "scatter",
			Name: s.Name,
		}
		if s.Stacked {
			line.StackGroup = "one"
		}
		for _, pt := range s.Points {
			if math.IsNaN(pt.Value) || math.IsInf(pt.Value, 0) {
				continue
			}
			line.X = append(line.X, pt.Timestamp.In(loc).Format(ChartTimeLayout))
			line.Y = append(line.Y, pt.Value)
		}
		resp.Lines = append(resp.Lines, line)
	}
	if p.Unit != "" {
		resp.Layout = &Layout{YAxis: Axis{TickSuffix: p.Unit}}
	}
	return resp
}

// Last returns the most recent value of the series, false when it has no points
func (s ChartSeries) Last() (float64, bool) {
	if len(s.Points) == 0 {
		return 0, false
	}
	return s.Points[len(s.Points)-1].Value, true
}

// Peak returns the largest finite value of the series
func (s ChartSeries) Peak() (float64, bool) {
	peak, found := 0.0, false
	for _, pt := range s.Points {
		if math.IsNaN(pt.Value) || math.IsInf(pt.Value, 0) {
			continue
		}
		if !found || pt.Value > peak {
			peak, found = pt.Value, true
		}
	}
	return peak, found
}
