package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/hlekernel/internal/app"
	"github.com/GriffinCanCode/hlekernel/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/hlekernel/internal/kernel"
	"github.com/GriffinCanCode/hlekernel/internal/service/sm"
	"github.com/GriffinCanCode/hlekernel/internal/shared/id"
)

// ProcessSource lists emulated processes
type ProcessSource interface {
	List() []app.ProcessInfo
	Get(pid id.ProcessID) (*app.Process, bool)
	Stats() app.Stats
}

// Handlers contains all HTTP handlers
type Handlers struct {
	kernel    *kernel.Kernel
	manager   *sm.ServiceManager
	processes ProcessSource
	metrics   *monitoring.Metrics
	version   string
	started   time.Time
}

// NewHandlers creates a new handler set. processes may be nil.
func NewHandlers(manager *sm.ServiceManager, processes ProcessSource, metrics *monitoring.Metrics, version string) *Handlers {
	return &Handlers{
		kernel:    manager.Kernel(),
		manager:   manager,
		processes: processes,
		metrics:   metrics,
		version:   version,
		started:   time.Now(),
	}
}

// Root handles the liveness check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "hlekernel",
		"version": h.version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"named_ports":    h.kernel.NamedPorts(),
		"services":       len(h.manager.Services()),
		"sm_initialized": h.manager.Interface() != nil && h.manager.Interface().IsInitialized(),
		"objects":        h.kernel.Census(),
	})
}

// ListServices lists every registered service
func (h *Handlers) ListServices(c *gin.Context) {
	services := h.manager.Services()
	c.JSON(http.StatusOK, gin.H{
		"services": services,
		"count":    len(services),
	})
}

// GetService describes one service
func (h *Handlers) GetService(c *gin.Context) {
	name := c.Param("name")

	info, err := h.manager.Service(name)
	switch {
	case errors.Is(err, sm.ErrServiceNotRegistered):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, info)
}

// ListNamedPorts lists kernel named ports
func (h *Handlers) ListNamedPorts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ports": h.kernel.NamedPorts(),
	})
}

// ListProcesses lists emulated processes
func (h *Handlers) ListProcesses(c *gin.Context) {
	if h.processes == nil {
		c.JSON(http.StatusOK, gin.H{
			"processes": []app.ProcessInfo{},
			"stats":     app.Stats{},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"processes": h.processes.List(),
		"stats":     h.processes.Stats(),
	})
}

// GetProcess returns one emulated process
func (h *Handlers) GetProcess(c *gin.Context) {
	pid, err := id.ParseProcessID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.processes == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "process not found"})
		return
	}
	process, ok := h.processes.Get(pid)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "process not found"})
		return
	}
	c.JSON(http.StatusOK, process.Info())
}

// MetricsJSON returns the counters snapshot
func (h *Handlers) MetricsJSON(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}
