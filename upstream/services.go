package upstream

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"payment-service/models"
)

const (
	ServiceUser    = "user"
	ServiceCart    = "cart"
	ServiceGateway = "payment-gateway"
)

// Services binds the client to the three collaborators the payment flow talks to.
type Services struct {
	client     *Client
	userURL    string
	cartURL    string
	gatewayURL string
}

// NewServices creates the collaborator bindings. userURL and cartURL are base
// URLs; gatewayURL is called as is.
func NewServices(client *Client, userURL, cartURL, gatewayURL string) *Services {
	return &Services{
		client:     client,
		userURL:    strings.TrimRight(userURL, "/"),
		cartURL:    strings.TrimRight(cartURL, "/"),
		gatewayURL: gatewayURL,
	}
}

// CheckUser asks the user directory whether userID is a known user.
func (s *Services) CheckUser(ctx context.Context, userID string) Outcome {
	return s.client.Call(ctx, ServiceUser, http.MethodGet, s.userURL+"/check/"+url.PathEscape(userID), nil)
}

// AppendHistory adds order to its user's order history.
func (s *Services) AppendHistory(ctx context.Context, order models.Order) Outcome {
	entry := models.OrderHistoryEntry{OrderID: order.ID, Cart: order.Cart}
	return s.client.Call(ctx, ServiceUser, http.MethodPost, s.userURL+"/order/"+url.PathEscape(order.UserID), entry)
}

// Charge requests payment authorization. The gateway is a stand-in and only
// receives a bare GET.
func (s *Services) Charge(ctx context.Context, _ models.Cart) Outcome {
	return s.client.Call(ctx, ServiceGateway, http.MethodGet, s.gatewayURL, nil)
}

// DeleteCart clears the user's cart.
func (s *Services) DeleteCart(ctx context.Context, userID string) Outcome {
	return s.client.Call(ctx, ServiceCart, http.MethodDelete, s.cartURL+"/cart/"+url.PathEscape(userID), nil)
}
