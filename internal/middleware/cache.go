package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nacca-sms/nacca-sms-api/pkg/middleware/requestid"
)

const (
	responseMetaKey   = "response_meta"
	requestStartKey   = "request_started"
	cacheHitKey       = "cache_hit"
	requestIDKey      = "request_id"
	processingTimeKey = "processing_time_ms"
)

// WithResponseMeta starts the per request metadata that handlers attach to the
// envelope's meta block.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(requestStartKey, time.Now())
		meta := map[string]interface{}{}
		if id := requestid.Value(c); id != "" {
			meta[requestIDKey] = id
		}
		c.Set(responseMetaKey, meta)
		c.Next()
	}
}

// SetCacheHit records whether the payload was served from the cache.
func SetCacheHit(c *gin.Context, hit bool) {
	ensureMeta(c)[cacheHitKey] = hit
}

// ExtractMeta returns the metadata gathered so far, stamped with the time spent
// since WithResponseMeta ran. It returns nil when nothing was gathered.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	value, exists := c.Get(responseMetaKey)
	if !exists {
		return nil
	}
	meta, ok := value.(map[string]interface{})
	if !ok {
		return nil
	}
	if started, ok := c.Get(requestStartKey); ok {
		if at, ok := started.(time.Time); ok {
			meta[processingTimeKey] = time.Since(at).Milliseconds()
		}
	}
	return meta
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if value, exists := c.Get(responseMetaKey); exists {
		if meta, ok := value.(map[string]interface{}); ok {
			return meta
		}
	}
	meta := make(map[string]interface{})
	c.Set(responseMetaKey, meta)
	return meta
}
