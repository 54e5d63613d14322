package entity

import (
	"time"

	"genie-storefront-assistant/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
)

// CustomerUpdate builds the $set document of a customer session upsert
func CustomerUpdate(s *domain.CustomerSession, now time.Time) bson.M {
	set := bson.M{
		"shopify_domain":        s.ShopDomain,
		"customer_email":        s.Email,
		"customer_access_token": s.AccessToken,
		"updated_at":            now,
	}
	if s.CustomerID != "" {
		set["customer_id"] = s.CustomerID
	}
	if s.SessionID != "" {
		set["session_id"] = s.SessionID
	}
	return set
}
