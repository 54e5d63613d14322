package api

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strings"
	texttemplate "text/template"
	"time"

	"genie-storefront-assistant/internal/domain"
)

var loaderTemplate = texttemplate.Must(texttemplate.New("loader").Parse(`(function () {
  if (window.__genieChatLoaded) { return; }
  window.__genieChatLoaded = true;
  var cfg = {{.Config}};
  var shop = cfg.shop || (window.Shopify && window.Shopify.shop) || window.location.hostname;
  var s = document.createElement("script");
  s.src = cfg.widgetUrl + "?shop=" + encodeURIComponent(shop) + "&api=" + encodeURIComponent(cfg.api);
  s.async = true;
  s.setAttribute("data-genie-shop", shop);
  (document.body || document.head).appendChild(s);
})();
`))

type loaderConfig struct {
	Shop      string `json:"shop"`
	API       string `json:"api"`
	WidgetURL string `json:"widgetUrl"`
}

// WidgetLoaderHandler serves the bootstrap script referenced by every installation
func WidgetLoaderHandler(appURL, widgetURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		cfg := loaderConfig{
			Shop:      q.Get("shop"),
			API:       strings.TrimRight(q.Get("api"), "/"),
			WidgetURL: widgetURL,
		}
		if cfg.API == "" {
			cfg.API = appURL
		}

		// json.Marshal escapes <, > and & so the values cannot close the script
		encoded, err := json.Marshal(cfg)
		if err != nil {
			writeError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=300")
		_ = loaderTemplate.Execute(w, map[string]string{"Config": string(encoded)})
	}
}

var loginResultTemplate = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{if .OK}}Login Successful{{else}}Login Failed{{end}}</title>
<style>
body{font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif;display:flex;justify-content:center;align-items:center;min-height:100vh;margin:0;background:#f3f4f6}
.card{background:#fff;border-radius:16px;padding:40px;box-shadow:0 20px 60px rgba(0,0,0,.15);text-align:center;max-width:480px;width:90%}
h1{color:#1f2937;margin:0 0 10px}
p{color:#6b7280}
button{background:#7c3aed;color:#fff;border:none;padding:12px 24px;border-radius:8px;font-size:16px;cursor:pointer}
</style>
</head>
<body>
<div class="card">
{{if .OK}}
<h1>Successfully Logged In!</h1>
<p>{{.Email}}</p>
<p>Shop: {{.Shop}}</p>
<p>You can now close this window and return to the chat.</p>
{{else}}
<h1>Login Failed</h1>
<p>{{.Message}}</p>
{{end}}
<button onclick="window.close()">Close Window</button>
</div>
</body>
</html>
`))

type loginResult struct {
	OK      bool
	Email   string
	Shop    string
	Message string
}

func renderLoginResult(w http.ResponseWriter, status int, result loginResult) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = loginResultTemplate.Execute(w, result)
}

// ScriptSummary is the public view of an installation
type ScriptSummary struct {
	Shop        string                  `json:"shop"`
	Mechanism   domain.InstallMechanism `json:"mechanism"`
	Status      domain.InstallStatus    `json:"status"`
	ScriptURL   string                  `json:"script_url"`
	ScriptTagID string                  `json:"script_tag_id,omitempty"`
	GeneratedAt string                  `json:"generated_at"`
	UpdatedAt   string                  `json:"updated_at"`
}

func summarize(inst *domain.WidgetInstallation) ScriptSummary {
	s := ScriptSummary{
		Shop:        inst.ShopDomain,
		Mechanism:   inst.Mechanism,
		Status:      inst.Status,
		ScriptURL:   inst.ScriptURL,
		GeneratedAt: inst.GeneratedAt.Format(time.RFC3339),
		UpdatedAt:   inst.UpdatedAt.Format(time.RFC3339),
	}
	if inst.Mechanism == domain.MechanismPlatformHook {
		s.ScriptTagID = inst.ExternalID
	}
	return s
}
