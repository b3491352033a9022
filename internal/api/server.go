package api

import "github.com/RoyceAzure/lab/grocery/internal/api/handler"

type Server struct {
	AuthHandler     *handler.AuthHandler
	LoyaltyHandler  *handler.LoyaltyHandler
	CatalogHandler  *handler.CatalogHandler
	CartHandler     *handler.CartHandler
	CheckoutHandler *handler.CheckoutHandler
	OrderHandler    *handler.OrderHandler
	AdminHandler    *handler.AdminHandler
}

func NewServer(
	authHandler *handler.AuthHandler,
	loyaltyHandler *handler.LoyaltyHandler,
	catalogHandler *handler.CatalogHandler,
	cartHandler *handler.CartHandler,
	checkoutHandler *handler.CheckoutHandler,
	orderHandler *handler.OrderHandler,
	adminHandler *handler.AdminHandler,
) *Server {
	return &Server{
		AuthHandler:     authHandler,
		LoyaltyHandler:  loyaltyHandler,
		CatalogHandler:  catalogHandler,
		CartHandler:     cartHandler,
		CheckoutHandler: checkoutHandler,
		OrderHandler:    orderHandler,
		AdminHandler:    adminHandler,
	}
}
