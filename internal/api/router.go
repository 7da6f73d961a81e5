package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/trznica/internal/config"
	"github.com/erazemk/trznica/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, pol config.Policy, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	itemsHandler := &ItemsHandler{DB: db}
	marketHandler := &MarketHandler{DB: db, Policy: pol}
	tradesHandler := &TradesHandler{DB: db, Policy: pol}
	privacyHandler := &PrivacyHandler{DB: db}
	walletHandler := &WalletHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only), including wallet top-ups and item grants.
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))
	mux.Handle("POST /api/users/{id}/deposit", authMW(requireAdmin(http.HandlerFunc(usersHandler.Deposit))))
	mux.Handle("POST /api/users/{id}/items", authMW(requireAdmin(http.HandlerFunc(usersHandler.GrantItem))))

	// Inventory: own items, other users' (privacy-gated), item details.
	mux.Handle("GET /api/inventory", authMW(http.HandlerFunc(itemsHandler.Inventory)))
	mux.Handle("GET /api/users/{id}/inventory", authMW(http.HandlerFunc(itemsHandler.UserInventory)))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PUT /api/items/{id}/image", authMW(http.HandlerFunc(itemsHandler.UploadImage)))
	mux.Handle("GET /api/items/{id}/image", authMW(http.HandlerFunc(itemsHandler.GetImage)))

	// Marketplace: listings and purchases.
	mux.Handle("GET /api/market", authMW(http.HandlerFunc(marketHandler.List)))
	mux.Handle("POST /api/market", authMW(http.HandlerFunc(marketHandler.Create)))
	mux.Handle("GET /api/market/{id}", authMW(http.HandlerFunc(marketHandler.Get)))
	mux.Handle("DELETE /api/market/{id}", authMW(http.HandlerFunc(marketHandler.Cancel)))
	mux.Handle("PUT /api/market/{id}/price", authMW(http.HandlerFunc(marketHandler.UpdatePrice)))
	mux.Handle("POST /api/market/{id}/purchase", authMW(http.HandlerFunc(marketHandler.Purchase)))

	// Trades and offers.
	mux.Handle("GET /api/trades", authMW(http.HandlerFunc(tradesHandler.List)))
	mux.Handle("POST /api/trades", authMW(http.HandlerFunc(tradesHandler.Create)))
	mux.Handle("GET /api/trades/{id}", authMW(http.HandlerFunc(tradesHandler.Get)))
	mux.Handle("DELETE /api/trades/{id}", authMW(http.HandlerFunc(tradesHandler.Cancel)))
	mux.Handle("GET /api/trades/{id}/offers", authMW(http.HandlerFunc(tradesHandler.ListOffers)))
	mux.Handle("POST /api/trades/{id}/offers", authMW(http.HandlerFunc(tradesHandler.CreateOffer)))
	mux.Handle("POST /api/offers/{id}/accept", authMW(http.HandlerFunc(tradesHandler.AcceptOffer)))
	mux.Handle("POST /api/offers/{id}/reject", authMW(http.HandlerFunc(tradesHandler.RejectOffer)))
	mux.Handle("DELETE /api/offers/{id}", authMW(http.HandlerFunc(tradesHandler.CancelOffer)))

	// Privacy settings and friends.
	mux.Handle("GET /api/privacy", authMW(http.HandlerFunc(privacyHandler.Get)))
	mux.Handle("PUT /api/privacy", authMW(http.HandlerFunc(privacyHandler.Update)))
	mux.Handle("GET /api/friends", authMW(http.HandlerFunc(privacyHandler.ListFriends)))
	mux.Handle("POST /api/friends", authMW(http.HandlerFunc(privacyHandler.RequestFriend)))
	mux.Handle("PUT /api/friends/{id}", authMW(http.HandlerFunc(privacyHandler.AcceptFriend)))

	// Wallet.
	mux.Handle("GET /api/wallet", authMW(http.HandlerFunc(walletHandler.Get)))

	return mux
}
