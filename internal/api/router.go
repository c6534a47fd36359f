package api

import (
	"net/http"

	"github.com/aaravmahajanofficial/storefront/internal/api/handlers"
	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/metrics"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const prefix = "/api/v1"

type Handlers struct {
	User         *handlers.UserHandler
	Product      *handlers.ProductHandler
	Category     *handlers.CategoryHandler
	Cart         *handlers.CartHandler
	Order        *handlers.OrderHandler
	Payment      *handlers.PaymentHandler
	Notification *handlers.NotificationHandler
}

// NewRouter registers every route. health may be nil when no dependency
// checks are configured.
func NewRouter(h Handlers, auth *middleware.AuthMiddleware, health http.Handler) *http.ServeMux {

	mux := http.NewServeMux()

	admin := func(next http.Handler) http.HandlerFunc {
		return auth.Authenticate(middleware.RequireRole(models.RoleAdmin)(next))
	}

	// Auth
	mux.HandleFunc("POST "+prefix+"/auth/register", h.User.Register())
	mux.HandleFunc("POST "+prefix+"/auth/login", h.User.Login())
	mux.HandleFunc("POST "+prefix+"/auth/verify-email", h.User.VerifyEmail())
	mux.HandleFunc("POST "+prefix+"/auth/forgot-password", h.User.ForgotPassword())
	mux.HandleFunc("POST "+prefix+"/auth/reset-password", h.User.ResetPassword())

	// Users
	mux.HandleFunc("GET "+prefix+"/users/me", auth.Authenticate(h.User.Profile()))
	mux.HandleFunc("PUT "+prefix+"/users/profile", auth.Authenticate(h.User.UpdateProfile()))
	mux.HandleFunc("PUT "+prefix+"/users/password", auth.Authenticate(h.User.ChangePassword()))
	mux.HandleFunc("GET "+prefix+"/users/addresses", auth.Authenticate(h.User.ListAddresses()))
	mux.HandleFunc("POST "+prefix+"/users/addresses", auth.Authenticate(h.User.AddAddress()))
	mux.HandleFunc("DELETE "+prefix+"/users/addresses/{id}", auth.Authenticate(h.User.DeleteAddress()))

	// Catalog
	mux.HandleFunc("GET "+prefix+"/products", h.Product.ListProducts())
	mux.HandleFunc("GET "+prefix+"/products/{slug}", h.Product.GetProductBySlug())

	// Cart
	mux.HandleFunc("GET "+prefix+"/cart", auth.Authenticate(h.Cart.GetCart()))
	mux.HandleFunc("POST "+prefix+"/cart", auth.Authenticate(h.Cart.AddItem()))
	mux.HandleFunc("PUT "+prefix+"/cart", auth.Authenticate(h.Cart.UpdateQuantity()))
	mux.HandleFunc("DELETE "+prefix+"/cart", auth.Authenticate(h.Cart.ClearCart()))

	// Checkout
	mux.HandleFunc("POST "+prefix+"/orders", auth.Authenticate(h.Order.CreateOrder()))
	mux.HandleFunc("GET "+prefix+"/orders", auth.Authenticate(h.Order.ListOrders()))
	mux.HandleFunc("GET "+prefix+"/orders/{id}", auth.Authenticate(h.Order.GetOrder()))
	mux.HandleFunc("POST "+prefix+"/payment/verify", auth.Authenticate(h.Payment.VerifyPayment()))

	// Admin
	mux.HandleFunc("GET "+prefix+"/admin/products", admin(h.Product.ListAllProducts()))
	mux.HandleFunc("POST "+prefix+"/admin/products", admin(h.Product.CreateProduct()))
	mux.HandleFunc("GET "+prefix+"/admin/products/{id}", admin(h.Product.GetProduct()))
	mux.HandleFunc("PUT "+prefix+"/admin/products/{id}", admin(h.Product.UpdateProduct()))
	mux.HandleFunc("DELETE "+prefix+"/admin/products/{id}", admin(h.Product.DeleteProduct()))
	mux.HandleFunc("GET "+prefix+"/admin/categories", admin(h.Category.ListCategories()))
	mux.HandleFunc("POST "+prefix+"/admin/categories", admin(h.Category.CreateCategory()))
	mux.HandleFunc("PUT "+prefix+"/admin/categories/{id}", admin(h.Category.UpdateCategory()))
	mux.HandleFunc("DELETE "+prefix+"/admin/categories/{id}", admin(h.Category.DeleteCategory()))
	mux.HandleFunc("GET "+prefix+"/admin/orders", admin(h.Order.ListAllOrders()))
	mux.HandleFunc("GET "+prefix+"/admin/orders/{id}", admin(h.Order.GetAnyOrder()))
	mux.HandleFunc("PUT "+prefix+"/admin/orders/{id}", admin(h.Order.UpdateOrderStatus()))
	mux.HandleFunc("POST "+prefix+"/admin/notifications/email", admin(h.Notification.SendEmail()))
	mux.HandleFunc("GET "+prefix+"/admin/notifications", admin(h.Notification.ListNotifications()))
	mux.HandleFunc("GET "+prefix+"/admin/notifications/{id}", admin(h.Notification.GetNotification()))

	// Operations
	if health != nil {
		mux.Handle("GET /health", health)
	}
	mux.Handle("GET /metrics", metrics.Handler())
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	return mux
}

// Wrap applies the server middleware chain. Metrics sits directly on the mux
// so it sees the matched route pattern.
func Wrap(mux http.Handler, limiter *middleware.RateLimiter, serviceName string) http.Handler {

	var handler = metrics.Middleware(mux)
	if limiter != nil {
		handler = limiter.Middleware(handler)
	}
	handler = middleware.Recoverer(handler)
	handler = middleware.Logging(handler)

	return otelhttp.NewHandler(handler, serviceName)
}
