package domain

import (
	"fmt"
	"net/url"
	"time"
)

// InstallMechanism identifies how the loader was provisioned
type InstallMechanism string

const (
	MechanismPlatformHook   InstallMechanism = "platform-hook"
	MechanismAssetInjection InstallMechanism = "asset-injection"
)

// InstallStatus is the lifecycle status of a WidgetInstallation
type InstallStatus string

const (
	StatusActive   InstallStatus = "active"
	StatusInactive InstallStatus = "inactive"
	StatusError    InstallStatus = "error"
)

const (
	// WidgetMarkerStart and WidgetMarkerEnd delimit the injected snippet in a theme layout
	WidgetMarkerStart = "<!-- genie-chat-widget:start -->"
	WidgetMarkerEnd   = "<!-- genie-chat-widget:end -->"

	// LoaderPath is served by the API and referenced from every installation
	LoaderPath = "/widget-loader.js"
)

// WidgetInstallation records how and where the chat loader was provisioned for one shop
type WidgetInstallation struct {
	ShopDomain  string           `json:"shop"`
	Mechanism   InstallMechanism `json:"mechanism"`
	ExternalID  string           `json:"script_tag_id,omitempty"`
	Status      InstallStatus    `json:"status"`
	ScriptURL   string           `json:"script_url"`
	Snippet     string           `json:"snippet"`
	GeneratedAt time.Time        `json:"generated_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// IsActive reports whether the installation is currently live
func (w *WidgetInstallation) IsActive() bool {
	return w != nil && w.Status == StatusActive
}

// LoaderURL builds the loader script URL for a shop
func LoaderURL(baseURL, shopDomain string) string {
	q := url.Values{}
	q.Set("shop", shopDomain)
	q.Set("api", baseURL)
	return baseURL + LoaderPath + "?" + q.Encode()
}

// RenderSnippet renders the marker-delimited script block injected into a theme layout
func RenderSnippet(loaderURL string) string {
	return fmt.Sprintf("%s\n<script src=\"%s\" async></script>\n%s\n", WidgetMarkerStart, loaderURL, WidgetMarkerEnd)
}
