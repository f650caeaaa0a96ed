package http

import (
	"net/http"
	"strings"

	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/app/policy"
	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/domain/ratelimit"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type resolvePolicyResponse struct {
	Policy      string                `json:"policy"`
	Algorithm   ratelimit.Algorithm   `json:"algorithm"`
	Match       string                `json:"match"`
	Pattern     string                `json:"pattern,omitempty"`
	Multiplier  float64               `json:"multiplier"`
	MaxRequests int                   `json:"max_requests"`
	KeyStrategy ratelimit.KeyStrategy `json:"key_strategy"`
	Adaptive    bool                  `json:"adaptive"`
}

type resolvePolicyHandler struct {
	logger   *logrus.Logger
	resolver policy.Resolver
}

// NewResolvePolicyHandler reports which policy a request would be checked
// against, without counting it.
func NewResolvePolicyHandler(logger *logrus.Logger, resolver policy.Resolver) Handler {
	return &resolvePolicyHandler{
		logger:   logger,
		resolver: resolver,
	}
}

func (h *resolvePolicyHandler) Handle(c *fiber.Ctx) error {
	path := c.Query("path")
	if path == "" || !strings.HasPrefix(path, "/") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "query parameter 'path' must be an absolute path"})
	}
	method := strings.ToUpper(c.Query("method", http.MethodGet))

	res := h.resolver.Resolve(path, method, c.Query("tier"))
	out := resolvePolicyResponse{
		Policy:      res.Policy.Name,
		Algorithm:   res.Policy.Algorithm(),
		Match:       res.Match.String(),
		Pattern:     res.Pattern,
		Multiplier:  res.Multiplier,
		KeyStrategy: res.Policy.KeyStrategy,
		Adaptive:    res.Policy.Adaptive,
	}
	if res.Policy.Limit != nil {
		out.MaxRequests = res.Policy.Limit.MaxRequests()
	}
	return c.Status(fiber.StatusOK).JSON(out)
}
