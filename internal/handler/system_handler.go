package handler

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/guidedwork-backend/internal/response"
)

const metricsInterval = 7 * time.Second

// SystemInfo describes the wiring the status endpoints report on.
type SystemInfo struct {
	CacheDriver   string
	LLMConfigured bool
	// CacheEntries reports the in-process cache size; nil when the cache is remote.
	CacheEntries func() int
}

// SystemHandler serves the health probe and runtime metrics.
type SystemHandler struct {
	info      SystemInfo
	startTime time.Time
	interval  time.Duration
	log       zerolog.Logger
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(info SystemInfo, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		info:      info,
		startTime: time.Now(),
		interval:  metricsInterval,
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

// Test godoc
// GET /api/test
func (h *SystemHandler) Test(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"status": "ok", "message": "Server is running properly"})
}

type systemMetrics struct {
	Timestamp int64  `json:"timestamp"`
	Uptime    string `json:"uptime"`

	// Go Application
	Goroutines  int    `json:"goroutines"`
	HeapAlloc   uint64 `json:"heap_alloc"`
	HeapSys     uint64 `json:"heap_sys"`
	NumGC       uint32 `json:"num_gc"`
	AppRSSBytes uint64 `json:"app_rss_bytes"`
	GoVersion   string `json:"go_version"`
	NumCPU      int    `json:"num_cpu"`

	// Services
	CacheDriver   string `json:"cache_driver"`
	CacheEntries  *int   `json:"cache_entries,omitempty"`
	LLMConfigured bool   `json:"llm_configured"`
}

// Status godoc
// GET /api/system/status
func (h *SystemHandler) Status(c *gin.Context) {
	response.Success(c, http.StatusOK, h.collect())
}

// MetricsSSE godoc
// GET /api/system/metrics
// Streams the status snapshot every few seconds until the client leaves.
func (h *SystemHandler) MetricsSSE(c *gin.Context) {
	reqCtx := c.Request.Context()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	h.log.Debug().Msg("Client connected to metrics stream")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.writeMetrics(c)

	for {
		select {
		case <-reqCtx.Done():
			h.log.Debug().Msg("Client left metrics stream")
			return
		case <-ticker.C:
			h.writeMetrics(c)
		}
	}
}

func (h *SystemHandler) writeMetrics(c *gin.Context) {
	data, err := json.Marshal(h.collect())
	if err != nil {
		return
	}
	fmt.Fprintf(c.Writer, "data: %s\n\n", data)
	c.Writer.Flush()
}

func (h *SystemHandler) collect() systemMetrics {
	m := systemMetrics{
		Timestamp:     time.Now().Unix(),
		Uptime:        time.Since(h.startTime).Round(time.Second).String(),
		GoVersion:     runtime.Version(),
		NumCPU:        runtime.NumCPU(),
		CacheDriver:   h.info.CacheDriver,
		LLMConfigured: h.info.LLMConfigured,
	}
	if h.info.CacheEntries != nil {
		n := h.info.CacheEntries()
		m.CacheEntries = &n
	}

	// ── Go Runtime ──
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.Goroutines = runtime.NumGoroutine()
	m.HeapAlloc = ms.HeapAlloc
	m.HeapSys = ms.Sys
	m.NumGC = ms.NumGC

	m.AppRSSBytes, _ = readProcessRSS()
	return m
}

// readProcessRSS reads the resident set size from /proc/self/status.
// Off Linux it reports an error and the field stays zero.
func readProcessRSS() (uint64, error) {
	f, err := os.Open("/proc/self/status")
	if err != nil {
		return 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[0] == "VmRSS:" {
			kb, err := strconv.ParseUint(fields[1], 10, 64)
			if err != nil {
				return 0, fmt.Errorf("parse VmRSS: %w", err)
			}
			return kb * 1024, nil
		}
	}
	return 0, fmt.Errorf("VmRSS not found")
}
