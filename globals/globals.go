package globals

import "os"

var (
	JwtSecret = []byte(envOr("SESSION_SECRET", "subiclife-portal-secret"))
	QRSecret  = []byte(envOr("QR_SECRET", "subiclife-checkin-secret"))
)

// Context keys
type ContextKey string

const PartnerIDKey ContextKey = "partnerId"

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
