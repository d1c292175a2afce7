package status

import (
	"encoding/json"

	"github.com/jonwraymond/checkops/probe"
	"github.com/jonwraymond/checkops/schema"
)

// Document is a published schema.
type Document struct {
	Name     string          `json:"name"`
	Version  int             `json:"version"`
	Document json.RawMessage `json:"document"`
}

// CollectorSchemas describes one collector.
type CollectorSchemas struct {
	probe.CollectorMeta
	Config Document `json:"config"`
	Result Document `json:"result"`
}

// StrategySchemas describes one strategy and its collectors.
type StrategySchemas struct {
	probe.Meta
	Config     Document           `json:"config"`
	Result     Document           `json:"result"`
	Collectors []CollectorSchemas `json:"collectors"`
}

// Schemas returns the config and result documents of every registered
// strategy, sorted by id.
func (s *Service) Schemas() []StrategySchemas {
	metas := s.registry.Strategies()
	out := make([]StrategySchemas, 0, len(metas))
	for _, meta := range metas {
		st, err := s.registry.Strategy(meta.ID)
		if err != nil {
			continue
		}
		entry := StrategySchemas{
			Meta:       meta,
			Config:     document(st.ConfigSchema()),
			Result:     document(st.ResultSchema()),
			Collectors: []CollectorSchemas{},
		}
		for _, cm := range s.registry.Collectors(meta.ID) {
			c, err := s.registry.Collector(cm.QualifiedID())
			if err != nil {
				continue
			}
			entry.Collectors = append(entry.Collectors, CollectorSchemas{
				CollectorMeta: cm,
				Config:        document(c.ConfigSchema()),
				Result:        document(c.ResultSchema()),
			})
		}
		out = append(out, entry)
	}
	return out
}

func document(v *schema.Versioned) Document {
	return Document{Name: v.Name(), Version: v.Version(), Document: v.Document()}
}
