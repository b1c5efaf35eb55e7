package handlers

import (
	"net/http"

	"fdeconsole/models"

	"github.com/gin-gonic/gin"
)

// Read-only overview across entities and jobs
func (h *Handler) GetStatsOverview(c *gin.Context) {
	var stats struct {
		Entities       int            `json:"entities"`
		TotalErrors    int            `json:"totalErrors"`
		ErrorsLastMin  int            `json:"errorsLastMinute"`
		Health         map[string]int `json:"health"`
		TotalJobs      int            `json:"totalJobs"`
		ActiveJobs     int            `json:"activeJobs"`
		SimulationOn   bool           `json:"simulationRunning"`
		AvgErrorPct    float64        `json:"avgErrorRatePercent"`
		RecentCritical int            `json:"recentCritical"`
	}

	stats.Health = map[string]int{
		string(models.HealthHealthy):  0,
		string(models.HealthNoisy):    0,
		string(models.HealthDegraded): 0,
	}

	all := h.Engine.AllStats()
	stats.Entities = len(all)
	var pctSum float64
	for _, st := range all {
		stats.TotalErrors += st.ErrorCount
		stats.ErrorsLastMin += st.ErrorRate
		stats.Health[string(st.Health)]++
		pctSum += st.ErrorPercent()
	}
	// Divide by zero check
	if len(all) > 0 {
		stats.AvgErrorPct = pctSum / float64(len(all))
	}

	for _, e := range h.Engine.RecentErrors("", 0) {
		if e.Severity == models.SeverityCritical {
			stats.RecentCritical++
		}
	}

	jobs := h.Jobs.List("")
	stats.TotalJobs = len(jobs)
	for _, j := range jobs {
		if !j.Status.Terminal() {
			stats.ActiveJobs++
		}
	}
	stats.SimulationOn = h.Engine.Running()

	c.JSON(http.StatusOK, stats)
}
