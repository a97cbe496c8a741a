package health

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// RegisterHTTPRoutes 注册 /health、/health/ready、/health/live
func RegisterHTTPRoutes(r *gin.Engine, aggregator *Aggregator) {
	// 就绪：调度循环在跑且芯片完成初始化；redis 或密钥异常只降级
	r.GET("/health/ready", func(c *gin.Context) {
		checks := aggregator.CheckAll(c.Request.Context())
		status := overall(checks)
		blocking := make([]string, 0)
		for name, res := range checks {
			if res.Status == StatusUnhealthy {
				blocking = append(blocking, name)
			}
		}
		sort.Strings(blocking)
		resp := gin.H{
			"status": status,
			"ready":  status != StatusUnhealthy,
		}
		if len(blocking) > 0 {
			resp["blocking"] = blocking
		}
		if m, ok := checks["modem"]; ok && m.Details != nil {
			resp["slac_state"] = m.Details["state"]
		}
		c.JSON(status.HTTPCode(), resp)
	})

	r.GET("/health/live", func(c *gin.Context) {
		if !aggregator.Alive() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"alive": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"alive": true})
	})

	r.GET("/health", func(c *gin.Context) {
		report := aggregator.Report(c.Request.Context(), time.Now())
		c.JSON(report.Status.HTTPCode(), report)
	})
}
