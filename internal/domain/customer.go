package domain

import "time"

// CustomerSession is a shopper's Customer Account API token for one shop
type CustomerSession struct {
	ShopDomain  string    `json:"shop"`
	Email       string    `json:"email"`
	CustomerID  string    `json:"customer_id,omitempty"`
	AccessToken string    `json:"-"`
	SessionID   string    `json:"session_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
