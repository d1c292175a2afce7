package httpprobe

import (
	"context"
	"fmt"
	"strings"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/prometheus/common/model"

	"github.com/jonwraymond/checkops/aggregate"
	"github.com/jonwraymond/checkops/probe"
	"github.com/jonwraymond/checkops/schema"
)

// DefaultMetricsPath is scraped when the collector config has no path.
const DefaultMetricsPath = "/metrics"

// Prometheus is the "http.prometheus" collector.
type Prometheus struct{}

func (Prometheus) Meta() probe.CollectorMeta {
	return probe.CollectorMeta{
		PluginID:    ID,
		ID:          "prometheus",
		DisplayName: "Prometheus metrics",
		Description: "Scrapes a metrics endpoint and sums selected families",
	}
}

func (Prometheus) ConfigSchema() *schema.Versioned { return prometheusConfigSchema }
func (Prometheus) ResultSchema() *schema.Versioned { return prometheusResultSchema }

func (Prometheus) Execute(ctx context.Context, config map[string]any, c probe.Client) (probe.Values, error) {
	path, _ := config["path"].(string)
	if path == "" {
		path = DefaultMetricsPath
	}
	resp, err := c.Exec(ctx, probe.Request{
		"path":   path,
		"accept": string(expfmt.NewFormat(expfmt.TypeTextPlain)),
	})
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp, 200); err != nil {
		return nil, err
	}

	families, err := parseMetrics(resp.String("body"))
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]bool)
	if names, ok := config["metrics"].([]any); ok {
		for _, n := range names {
			if s, ok := n.(string); ok {
				wanted[s] = true
			}
		}
	}
	metrics := make(map[string]any, len(families))
	for name, mf := range families {
		if len(wanted) == 0 || wanted[name] {
			metrics[name] = sumFamily(mf)
		}
	}
	latency, _ := resp.Float("latencyMs")
	return probe.Values{
		"familyCount": len(families),
		"metrics":     metrics,
		"latencyMs":   latency,
	}, nil
}

func (Prometheus) MergeResult(agg aggregate.Set, result probe.Values) aggregate.Set {
	ms, ok := result.Float("latencyMs")
	n, _ := result.Float("familyCount")
	agg = agg.Average("latencyMs", ms, ok).Rate("success", n > 0)
	if metrics, ok := result["metrics"].(map[string]any); ok {
		for name, v := range metrics {
			f, ok := v.(float64)
			agg = agg.Average("metric:"+name, f, ok)
		}
	}
	return agg
}

// parseMetrics decodes a text exposition. Any syntax error rejects the
// whole body, even after families were read.
func parseMetrics(body string) (map[string]*dto.MetricFamily, error) {
	parser := expfmt.NewTextParser(model.UTF8Validation)
	mfs, err := parser.TextToMetricFamilies(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse prometheus text: %w", err)
	}
	return mfs, nil
}

// sumFamily adds up counter, gauge and untyped samples, and histogram or
// summary sample counts.
func sumFamily(mf *dto.MetricFamily) float64 {
	var total float64
	for _, m := range mf.GetMetric() {
		switch {
		case m.Counter != nil:
			total += m.Counter.GetValue()
		case m.Gauge != nil:
			total += m.Gauge.GetValue()
		case m.Untyped != nil:
			total += m.Untyped.GetValue()
		case m.Histogram != nil:
			total += float64(m.Histogram.GetSampleCount())
		case m.Summary != nil:
			total += float64(m.Summary.GetSampleCount())
		}
	}
	return total
}

var _ probe.Collector = Prometheus{}
