package probe

import (
	"errors"
	"fmt"

	"github.com/jonwraymond/checkops/aggregate"
	"github.com/jonwraymond/checkops/schema"
)

// Fold merges run into b: its status and latency sample, the strategy
// aggregate, and one aggregate per collector instance. Results stored
// under an older result schema are upgraded first. The sample is always
// counted; a result that cannot be upgraded or whose plugin is no longer
// registered is skipped and reported in the returned error.
func (r *Registry) Fold(b *aggregate.Bucket, run Run) error {
	b.AddSample(aggregate.Sample{
		Status:    run.Status,
		LatencyMs: run.LatencyMs(),
		Timestamp: run.Timestamp,
	})

	var errs []error
	if s, err := r.Strategy(run.StrategyID); err != nil {
		errs = append(errs, err)
	} else if run.Result != nil {
		values, err := currentResult(s.ResultSchema(), run.Result, run.ResultVersion)
		if err != nil {
			errs = append(errs, err)
		} else {
			b.Strategy = s.MergeResult(b.Strategy, values)
		}
	}

	for instance, cr := range run.Collectors {
		c, err := r.Collector(cr.CollectorID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if cr.Values == nil {
			continue
		}
		values, err := currentResult(c.ResultSchema(), cr.Values, cr.ResultVersion)
		if err != nil {
			errs = append(errs, fmt.Errorf("collector %s: %w", instance, err))
			continue
		}
		if b.Collectors == nil {
			b.Collectors = make(map[string]aggregate.Set)
		}
		b.Collectors[instance] = c.MergeResult(b.Collectors[instance], values)
	}
	return errors.Join(errs...)
}

func currentResult(v *schema.Versioned, values Values, version int) (Values, error) {
	if version == 0 || version == v.Version() {
		return values, nil
	}
	data, err := v.Load(schema.Payload{Version: version, Data: values})
	if err != nil {
		return nil, err
	}
	return data, nil
}
