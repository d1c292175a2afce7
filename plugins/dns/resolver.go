package dns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// ErrNXDOMAIN reports a name that does not exist.
var ErrNXDOMAIN = errors.New("NXDOMAIN")

// Resolver looks up records of recordType for hostname. An empty
// nameserver uses the system resolver.
type Resolver interface {
	Lookup(ctx context.Context, nameserver, hostname, recordType string) ([]string, error)
}

// ResolverFunc adapts a function to a Resolver.
type ResolverFunc func(ctx context.Context, nameserver, hostname, recordType string) ([]string, error)

func (f ResolverFunc) Lookup(ctx context.Context, nameserver, hostname, recordType string) ([]string, error) {
	return f(ctx, nameserver, hostname, recordType)
}

// NetResolver resolves through the net package.
type NetResolver struct{}

func (NetResolver) Lookup(ctx context.Context, nameserver, hostname, recordType string) ([]string, error) {
	r := net.DefaultResolver
	if nameserver != "" {
		addr := nameserver
		if _, _, err := net.SplitHostPort(addr); err != nil {
			addr = net.JoinHostPort(addr, "53")
		}
		r = &net.Resolver{
			PreferGo: true,
			Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
				d := net.Dialer{Timeout: 5 * time.Second}
				return d.DialContext(ctx, network, addr)
			},
		}
	}

	values, err := lookup(ctx, r, hostname, recordType)
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return nil, fmt.Errorf("lookup %s: %w", hostname, ErrNXDOMAIN)
	}
	return values, err
}

func lookup(ctx context.Context, r *net.Resolver, host, recordType string) ([]string, error) {
	switch strings.ToUpper(recordType) {
	case "", "A", "AAAA":
		network := "ip4"
		if strings.EqualFold(recordType, "AAAA") {
			network = "ip6"
		}
		ips, err := r.LookupIP(ctx, network, host)
		if err != nil {
			return nil, err
		}
		out := make([]string, len(ips))
		for i, ip := range ips {
			out[i] = ip.String()
		}
		return out, nil
	case "CNAME":
		cname, err := r.LookupCNAME(ctx, host)
		if err != nil {
			return nil, err
		}
		return []string{cname}, nil
	case "MX":
		mxs, err := r.LookupMX(ctx, host)
		if err != nil {
			return nil, err
		}
		out := make([]string, len(mxs))
		for i, mx := range mxs {
			out[i] = fmt.Sprintf("%d %s", mx.Pref, mx.Host)
		}
		return out, nil
	case "TXT":
		return r.LookupTXT(ctx, host)
	case "NS":
		nss, err := r.LookupNS(ctx, host)
		if err != nil {
			return nil, err
		}
		out := make([]string, len(nss))
		for i, ns := range nss {
			out[i] = ns.Host
		}
		return out, nil
	}
	return nil, fmt.Errorf("dns: unsupported record type %q", recordType)
}
