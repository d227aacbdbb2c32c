package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/trueedge/trueedge/internal/database"
	"github.com/trueedge/trueedge/internal/modules/events"
)

var startedAt = time.Now()

// SystemHandlers serves process and host health information.
type SystemHandlers struct {
	log      zerolog.Logger
	dataDir  string
	ledgerDB *database.DB // nil when the JSONL backend is active
	store    events.Store
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(log zerolog.Logger, dataDir string, ledgerDB *database.DB, store events.Store) *SystemHandlers {
	return &SystemHandlers{
		log:      log.With().Str("handler", "system").Logger(),
		dataDir:  dataDir,
		ledgerDB: ledgerDB,
		store:    store,
	}
}

// HandleStatus returns a snapshot of process, host and store health.
// GET /api/system/status
func (h *SystemHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	cpuPct, ramPct := h.getSystemStats()

	response := map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(startedAt).Seconds()),
		"cpu_percent":    cpuPct,
		"ram_percent":    ramPct,
		"disk":           h.getDiskUsage(),
		"data_dir_mb":    h.getDataDirSizeMB(),
	}

	if count, err := h.store.Count(); err == nil {
		response["events_stored"] = count
	} else {
		h.log.Warn().Err(err).Msg("Failed to count stored events")
	}

	if h.ledgerDB != nil {
		if stats, err := h.ledgerDB.GetStats(); err == nil {
			response["ledger_db"] = map[string]interface{}{
				"size_bytes":     stats.SizeBytes,
				"wal_size_bytes": stats.WALSizeBytes,
				"page_count":     stats.PageCount,
				"page_size":      stats.PageSize,
				"freelist_count": stats.FreelistCount,
			}
		} else {
			h.log.Warn().Err(err).Msg("Failed to get ledger DB stats")
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode system status")
	}
}

// getSystemStats calculates CPU and RAM usage percentages.
// Uses a 100ms sampling interval to keep the status endpoint responsive.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// getDiskUsage reports usage of the filesystem holding the data directory.
func (h *SystemHandlers) getDiskUsage() map[string]interface{} {
	usage, err := disk.Usage(h.dataDir)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get disk usage")
		return nil
	}

	return map[string]interface{}{
		"total_bytes":  usage.Total,
		"free_bytes":   usage.Free,
		"used_percent": usage.UsedPercent,
	}
}

// getDataDirSizeMB walks the data directory and sums file sizes.
func (h *SystemHandlers) getDataDirSizeMB() float64 {
	var totalSize int64

	err := filepath.Walk(h.dataDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip unreadable entries
		}
		if !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to measure data directory size")
	}

	return float64(totalSize) / 1024 / 1024
}
