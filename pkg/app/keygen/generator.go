package keygen

import (
	"fmt"
	"net/netip"
	"path"
	"strings"

	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/domain/ratelimit"
)

const (
	UnknownClient = "unknown"
	DefaultTier   = "default"
)

// Headers consulted for the client address when no trusted proxies are
// configured, in order.
var ClientIPHeaders = []string{
	"X-Real-IP",
	"X-Forwarded-For",
	"X-Original-Forwarded-For",
	"True-Client-IP",
	"CF-Connecting-IP",
}

//go:generate mockery --name=Generator --dir=. --output=./mocks --filename=generator_mock.go --case=underscore --with-expecter
type Generator interface {
	Generate(d ratelimit.Descriptor, strategy ratelimit.KeyStrategy) ratelimit.Key
	ClientIP(d ratelimit.Descriptor) string
}

type generator struct {
	trusted []netip.Prefix
}

// NewGenerator builds a key generator. With trusted proxies configured,
// forwarding headers are only honored when the socket peer is one of them.
func NewGenerator(trustedProxies []netip.Prefix) Generator {
	return &generator{trusted: trustedProxies}
}

// ParseTrustedProxies accepts CIDRs and bare addresses.
func ParseTrustedProxies(values []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if strings.Contains(v, "/") {
			p, err := netip.ParsePrefix(v)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", v, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(v)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", v, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

func (g *generator) Generate(d ratelimit.Descriptor, strategy ratelimit.KeyStrategy) ratelimit.Key {
	switch strategy {
	case ratelimit.KeyByUser:
		if id := callerID(d); id != "" {
			return ratelimit.Key("user:" + id)
		}
		return g.ipKey(d)
	case ratelimit.KeyByEndpoint:
		return ratelimit.Key(fmt.Sprintf("endpoint:%s:%s:%s", method(d), NormalizePath(d.Path), g.ClientIP(d)))
	case ratelimit.KeyByComposite:
		tier := strings.ToLower(strings.TrimSpace(d.Tier))
		if tier == "" {
			tier = DefaultTier
		}
		subject := callerID(d)
		if subject == "" {
			subject = g.ClientIP(d)
		}
		return ratelimit.Key(fmt.Sprintf("%s:%s:%s", tier, subject, NormalizePath(d.Path)))
	default:
		return g.ipKey(d)
	}
}

func (g *generator) ipKey(d ratelimit.Descriptor) ratelimit.Key {
	return ratelimit.Key("ip:" + g.ClientIP(d))
}

// ClientIP resolves the canonical client address, or "unknown".
func (g *generator) ClientIP(d ratelimit.Descriptor) string {
	peer, peerOK := parseAddr(d.RemoteAddr)
	if len(g.trusted) > 0 {
		if !peerOK {
			return UnknownClient
		}
		if !g.isTrusted(peer) {
			return peer.String()
		}
		if addr, ok := g.fromForwardedFor(d.Header("X-Forwarded-For")); ok {
			return addr.String()
		}
		if addr, ok := parseAddr(d.Header("X-Real-IP")); ok {
			return addr.String()
		}
		return peer.String()
	}

	for _, h := range ClientIPHeaders {
		value := d.Header(h)
		if value == "" {
			continue
		}
		first, _, _ := strings.Cut(value, ",")
		if addr, ok := parseAddr(first); ok {
			return addr.String()
		}
	}
	if peerOK {
		return peer.String()
	}
	return UnknownClient
}

// fromForwardedFor walks the chain right to left and returns the first hop
// that is not a trusted proxy. When every hop is trusted the left-most valid
// one wins.
func (g *generator) fromForwardedFor(value string) (netip.Addr, bool) {
	if value == "" {
		return netip.Addr{}, false
	}
	hops := strings.Split(value, ",")
	var leftmost netip.Addr
	found := false
	for i := len(hops) - 1; i >= 0; i-- {
		addr, ok := parseAddr(hops[i])
		if !ok {
			continue
		}
		if !g.isTrusted(addr) {
			return addr, true
		}
		leftmost, found = addr, true
	}
	return leftmost, found
}

func (g *generator) isTrusted(addr netip.Addr) bool {
	for _, p := range g.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// parseAddr accepts "ip", "ip:port" and "[ipv6]:port" and canonicalises the
// result: IPv4-mapped IPv6 becomes IPv4 and zones are dropped.
func parseAddr(raw string) (netip.Addr, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return netip.Addr{}, false
	}
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		ap, perr := netip.ParseAddrPort(raw)
		if perr != nil {
			addr, err = netip.ParseAddr(strings.Trim(raw, "[]"))
			if err != nil {
				return netip.Addr{}, false
			}
		} else {
			addr = ap.Addr()
		}
	}
	return addr.Unmap().WithZone(""), true
}

func callerID(d ratelimit.Descriptor) string {
	return strings.TrimSpace(d.CallerID)
}

func method(d ratelimit.Descriptor) string {
	if d.Method == "" {
		return "GET"
	}
	return strings.ToUpper(d.Method)
}

// NormalizePath cleans p and drops any trailing slash.
func NormalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
