package redisx

import "time"

const (
	// Checkout idempotency: idem:checkout:{checkout_id} -> order_id
	KeyIdemCheckout = "idem:checkout:%s"

	// Order status cache: order_status:{order_id} -> {"status": "..."}
	KeyOrderStatus = "order_status:%s"

	// Event dedup for consumers: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Daily audit counters: hash audit:daily:{yyyymmdd}
	KeyAuditDaily = "audit:daily:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
	TTLAudit       = 40 * 24 * time.Hour
)
