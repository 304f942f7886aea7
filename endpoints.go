package bucketry

import (
	"fmt"
	"sort"
)

// AddressingStyle controls whether generated URLs place the bucket in the
// host name (virtual-hosted) or in the path.
type AddressingStyle string

const (
	// AddressingAuto picks virtual-hosted style for DNS-safe bucket names
	// and falls back to path style otherwise.
	AddressingAuto AddressingStyle = "auto"
	// AddressingPath always places the bucket in the URL path.
	AddressingPath AddressingStyle = "path"
	// AddressingVirtual always places the bucket in the host name.
	AddressingVirtual AddressingStyle = "virtual"
)

func (a AddressingStyle) IsValid() bool {
	switch a {
	case AddressingAuto, AddressingPath, AddressingVirtual:
		return true
	default:
		return false
	}
}

func ParseAddressingStyle(s string) (AddressingStyle, error) {
	style := AddressingStyle(s)
	if !style.IsValid() {
		return "", fmt.Errorf("invalid addressing style: %s (valid styles: auto, path, virtual)", s)
	}
	return style, nil
}

// Endpoints holds the connection endpoints for one scheme. EndpointURL is
// used for transfers; PresigningEndpointURL, when set, is used only for
// generating presigned URLs. The split exists because the transfer endpoint
// is often an internal hostname (e.g. a container network address) while
// presigned URLs must be routable by external clients.
type Endpoints struct {
	EndpointURL           string `mapstructure:"endpoint_url"`
	PresigningEndpointURL string `mapstructure:"endpoint_url_presigning"`
}

// EndpointRegistry maps URL schemes to endpoint configuration. It is built
// once at startup and never mutated afterwards, so it is safe for concurrent
// readers without locking.
type EndpointRegistry struct {
	region    string
	endpoints map[string]Endpoints
}

// NewEndpointRegistry builds a registry for the given endpoint map. The map
// is copied; the region is used to derive the default endpoint for schemes
// configured without an explicit endpoint URL.
func NewEndpointRegistry(region string, endpoints map[string]Endpoints) *EndpointRegistry {
	eps := make(map[string]Endpoints, len(endpoints))
	for scheme, ep := range endpoints {
		eps[scheme] = ep
	}
	return &EndpointRegistry{region: region, endpoints: eps}
}

// Resolve returns the endpoint configuration for a scheme.
// Returns ErrUnknownScheme if the scheme is not registered.
func (r *EndpointRegistry) Resolve(scheme string) (Endpoints, error) {
	ep, ok := r.endpoints[scheme]
	if !ok {
		return Endpoints{}, fmt.Errorf("scheme %q: %w", scheme, ErrUnknownScheme)
	}
	return ep, nil
}

// Endpoint returns the transfer endpoint URL for a scheme, falling back to
// the regional default when none is configured.
func (r *EndpointRegistry) Endpoint(scheme string) (string, error) {
	ep, err := r.Resolve(scheme)
	if err != nil {
		return "", err
	}
	if ep.EndpointURL != "" {
		return ep.EndpointURL, nil
	}
	return r.RegionalDefault(), nil
}

// PresigningEndpoint returns the endpoint URL to use when presigning requests
// for a scheme. The fallback chain is: presigning endpoint, then transfer
// endpoint, then the regional default.
func (r *EndpointRegistry) PresigningEndpoint(scheme string) (string, error) {
	ep, err := r.Resolve(scheme)
	if err != nil {
		return "", err
	}
	if ep.PresigningEndpointURL != "" {
		return ep.PresigningEndpointURL, nil
	}
	if ep.EndpointURL != "" {
		return ep.EndpointURL, nil
	}
	return r.RegionalDefault(), nil
}

// RegionalDefault returns the regional default endpoint URL.
func (r *EndpointRegistry) RegionalDefault() string {
	return fmt.Sprintf("https://s3.%s.amazonaws.com", r.region)
}

// Schemes returns all registered schemes in sorted order.
func (r *EndpointRegistry) Schemes() []string {
	schemes := make([]string, 0, len(r.endpoints))
	for scheme := range r.endpoints {
		schemes = append(schemes, scheme)
	}
	sort.Strings(schemes)
	return schemes
}
