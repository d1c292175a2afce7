package plugins

import (
	"errors"

	"github.com/gorilla/websocket"
	"google.golang.org/grpc"

	"github.com/jonwraymond/checkops/plugins/consulprobe"
	"github.com/jonwraymond/checkops/plugins/dns"
	"github.com/jonwraymond/checkops/plugins/grpcprobe"
	"github.com/jonwraymond/checkops/plugins/httpprobe"
	"github.com/jonwraymond/checkops/plugins/nomadprobe"
	"github.com/jonwraymond/checkops/plugins/s3probe"
	"github.com/jonwraymond/checkops/plugins/script"
	"github.com/jonwraymond/checkops/plugins/sqlprobe"
	"github.com/jonwraymond/checkops/plugins/wsprobe"
	"github.com/jonwraymond/checkops/probe"
)

// Options overrides the external dependencies of the built-in plugins.
// Zero values select the production implementations.
type Options struct {
	Resolver    dns.Resolver
	Executor    script.Executor
	SQLOpener   sqlprobe.Opener
	GRPCOptions []grpc.DialOption
	WSDialer    *websocket.Dialer

	// DisableScript leaves the script strategy unregistered.
	DisableScript bool
}

// RegisterAll registers every built-in strategy and collector into reg.
// Registration errors are joined; successful registrations are kept.
func RegisterAll(reg *probe.Registry, opts Options) error {
	strategies := []probe.Strategy{
		dns.New(opts.Resolver),
		httpprobe.New(),
		sqlprobe.New(opts.SQLOpener),
		grpcprobe.New(opts.GRPCOptions...),
		consulprobe.New(),
		nomadprobe.New(),
		s3probe.New(),
		wsprobe.New(opts.WSDialer),
	}
	collectors := []probe.Collector{
		dns.Lookup{},
		httpprobe.Request{},
		httpprobe.Prometheus{},
		sqlprobe.Query{},
		grpcprobe.Check{},
		s3probe.Object{},
	}
	if !opts.DisableScript {
		strategies = append(strategies, script.New(opts.Executor))
		collectors = append(collectors, script.Execute{}, script.Inline{})
	}

	var errs []error
	for _, s := range strategies {
		if err := reg.RegisterStrategy(s); err != nil {
			errs = append(errs, err)
		}
	}
	for _, c := range collectors {
		if err := reg.RegisterCollector(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
