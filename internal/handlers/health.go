package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health pings the database, and Redis when one is configured.
func Health(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		body := gin.H{"status": "ok"}
		status := http.StatusOK

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
			status = http.StatusServiceUnavailable
		}
		body["db"] = dbStatus

		if rdb != nil {
			redisStatus := "connected"
			if rdb.Ping(ctx).Err() != nil {
				redisStatus = "error"
				status = http.StatusServiceUnavailable
			}
			body["redis"] = redisStatus
		}

		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		c.JSON(status, body)
	}
}
