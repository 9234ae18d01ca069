package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// probeTimeout bounds one readiness pass across all components.
const probeTimeout = 5 * time.Second

// Probe is one readiness check: a component name and its health call.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandler serves the Kubernetes liveness and readiness probes.
// Liveness never touches dependencies; readiness probes every wired
// component concurrently and reports per-component latency.
type HealthHandler struct {
	probes  []Probe
	version string
	startAt time.Time
}

// NewHealthHandler wires the probe endpoints.
func NewHealthHandler(version string, probes ...Probe) *HealthHandler {
	return &HealthHandler{
		probes:  probes,
		version: version,
		startAt: time.Now(),
	}
}

// RegisterRoutes mounts the probes at the engine root, outside the API
// group and its middleware.
func (h *HealthHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/healthz", h.Liveness)
	r.GET("/readyz", h.Readiness)
}

// LivenessResponse is the body of GET /healthz.
type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// ComponentCheck is one component's readiness result.
type ComponentCheck struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ReadinessResponse is the body of GET /readyz.
type ReadinessResponse struct {
	Status     string                    `json:"status"`
	Components map[string]ComponentCheck `json:"components,omitempty"`
}

// Liveness handles GET /healthz. It answers 200 whenever the process
// is able to serve at all.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, LivenessResponse{
		Status:  "alive",
		Version: h.version,
		Uptime:  time.Since(h.startAt).Truncate(time.Second).String(),
	})
}

// Readiness handles GET /readyz: 200 when every component answers, 503
// otherwise.
func (h *HealthHandler) Readiness(c *gin.Context) {
	if len(h.probes) == 0 {
		c.JSON(http.StatusOK, ReadinessResponse{Status: "ready"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
	defer cancel()

	components := h.checkAll(ctx)

	status := http.StatusOK
	resp := ReadinessResponse{Status: "ready", Components: components}
	for _, comp := range components {
		if comp.Status != "healthy" {
			resp.Status = "not_ready"
			status = http.StatusServiceUnavailable
			break
		}
	}
	c.JSON(status, resp)
}

func (h *HealthHandler) checkAll(ctx context.Context) map[string]ComponentCheck {
	results := make(map[string]ComponentCheck, len(h.probes))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, p := range h.probes {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			err := p.Check(ctx)
			check := ComponentCheck{
				Status:  "healthy",
				Latency: time.Since(start).Truncate(time.Millisecond).String(),
			}
			if err != nil {
				check.Status = "unhealthy"
				check.Error = err.Error()
			}
			mu.Lock()
			results[p.Name] = check
			mu.Unlock()
		}()
	}
	wg.Wait()
	return results
}
