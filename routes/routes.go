package routes

import (
	"subiclife/bookings"
	"subiclife/checkin"
	"subiclife/member"
	"subiclife/middleware"
	"subiclife/portal"
	"subiclife/ratelim"
	"subiclife/realtime"
	"subiclife/receipt"

	"github.com/julienschmidt/httprouter"
)

// Deps carries the constructed handler set into route registration.
type Deps struct {
	Member   *member.Handler
	Bookings *bookings.Handler
	Portal   *portal.Handler
	Checkin  *checkin.Handler
	Receipt  *receipt.Handler
	Hub      *realtime.Hub
}

func RoutesWrapper(router *httprouter.Router, rl *ratelim.RateLimiter, d Deps) {
	AddMemberRoutes(router, rl, d)
	AddBookingRoutes(router, rl, d)
	AddPortalRoutes(router, rl, d)
	AddRealtimeRoutes(router, d)
}

func AddMemberRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, d Deps) {
	router.POST("/api/v1/members", rl.Limit(d.Member.Register))
	router.GET("/api/v1/members/:id", rl.Limit(d.Member.GetMember))
	router.POST("/api/v1/members/:id/tier", rl.Limit(d.Member.PurchaseTier))
	router.POST("/api/v1/members/:id/wishlist/:offerId", rl.Limit(d.Member.ToggleWishlist))
	router.GET("/api/v1/members/:id/qr", rl.Limit(d.Checkin.MemberQR))

	router.GET("/api/v1/tiers", rl.Limit(d.Member.Tiers))
	router.GET("/api/v1/partners", rl.Limit(d.Member.ListPartners))
	router.GET("/api/v1/partners/:id", rl.Limit(d.Member.GetPartner))

	router.GET("/api/v1/notifications", rl.Limit(d.Member.Notifications))
	router.POST("/api/v1/notifications/:id/read", rl.Limit(d.Member.MarkNotificationRead))
}

func AddBookingRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, d Deps) {
	router.POST("/api/v1/bookings", rl.Limit(d.Bookings.Create))
	router.GET("/api/v1/bookings", rl.Limit(d.Bookings.List))
	router.GET("/api/v1/bookings/:id", rl.Limit(d.Bookings.Get))
	router.GET("/api/v1/bookings/:id/timeline", rl.Limit(d.Bookings.Timeline))
	router.POST("/api/v1/bookings/:id/cancel", rl.Limit(d.Bookings.Cancel))
	router.POST("/api/v1/bookings/:id/pay", rl.Limit(d.Bookings.Pay))
	router.GET("/api/v1/bookings/:id/qr", rl.Limit(d.Checkin.BookingQR))
	router.GET("/api/v1/bookings/:id/receipt", rl.Limit(d.Receipt.BookingReceipt))

	router.POST("/api/v1/counter-offers/:id/accept", rl.Limit(d.Bookings.AcceptCounterOffer))
	router.POST("/api/v1/counter-offers/:id/decline", rl.Limit(d.Bookings.DeclineCounterOffer))
}

func AddPortalRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, d Deps) {
	router.POST("/api/v1/portal/session", rl.Limit(d.Portal.CreateSession))

	session := middleware.Chain(rl.Limit, middleware.PortalSession)
	router.GET("/api/v1/portal/bookings", session(d.Portal.ListBookings))
	router.POST("/api/v1/portal/bookings/:id/accept", session(d.Portal.Accept))
	router.POST("/api/v1/portal/bookings/:id/decline", session(d.Portal.Decline))
	router.POST("/api/v1/portal/bookings/:id/counter", session(d.Portal.Counter))
	router.POST("/api/v1/portal/bookings/:id/cancel", session(d.Portal.Cancel))
	router.POST("/api/v1/portal/checkin", session(d.Checkin.CheckIn))
	router.GET("/api/v1/portal/notifications", session(d.Portal.Notifications))
}

func AddRealtimeRoutes(router *httprouter.Router, d Deps) {
	router.GET("/ws/updates", d.Hub.HandleWS)
}
