package badge

import (
	"bytes"
	"fmt"
	"text/template"
)

// Metadata carries the badge fields that appear inside the synthesized
// document.
type Metadata struct {
	Name string
}

// Synthesize turns a valid selection, a style configuration and badge metadata
// into one complete, self-contained HTML document: inlined styles, inlined
// hover behavior, no external script dependencies beyond the logo assets.
// Pure and deterministic: identical inputs yield byte-identical output, and no
// timestamps or random identifiers are embedded. The only failure mode is a
// selection size outside [MinimumSelectionSize, MaximumSelectionSize], which
// callers are expected to prevent via the selection validator.
func Synthesize(outlets []Outlet, configuration Config, metadata Metadata) (string, error) {
	if len(outlets) < MinimumSelectionSize || len(outlets) > MaximumSelectionSize {
		return "", fmt.Errorf("%w: %d outlets", ErrSynthesisPrecondition, len(outlets))
	}

	view := buildDocumentView(outlets, configuration, metadata.Name)

	var buffer bytes.Buffer
	if executeErr := badgeDocumentTemplate.Execute(&buffer, view); executeErr != nil {
		return "", fmt.Errorf("render badge document: %w", executeErr)
	}
	return buffer.String(), nil
}

var badgeDocumentTemplate = template.Must(template.New("badge_document").Parse(badgeDocumentSource))

const badgeDocumentSource = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.BadgeName}}</title>
<style>
.pb-badge { box-sizing: border-box; font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; background: {{.Config.SecondaryColor}}; color: {{.Config.PrimaryColor}}; border: 1px solid {{.Config.AccentColor}}; border-radius: 10px; padding: {{if eq .Config.Spacing "compact"}}10px 14px{{else}}18px 24px{{end}}; max-width: 640px; margin: 0 auto; text-align: center; }
.pb-badge * { box-sizing: border-box; }
.pb-caption { font-size: .8125rem; letter-spacing: .08em; text-transform: uppercase; color: {{.Config.PrimaryColor}}; opacity: .75; margin: 0 0 .25rem; }
.pb-title { font-size: 1.125rem; font-weight: 700; margin: 0 0 .75rem; }
.pb-ornament { display: inline-block; width: 42px; height: 2px; background: {{.Config.AccentColor}}; vertical-align: middle; margin: 0 .5rem .25rem; }
.pb-row { display: flex; flex-wrap: wrap; justify-content: center; align-items: center; gap: {{if eq .Config.Spacing "compact"}}.5rem{{else}}1rem{{end}}; margin: .5rem 0; }
.pb-row-overflow .pb-outlet { opacity: .85; }
.pb-outlet { display: inline-flex; align-items: center; gap: .375rem; padding: .25rem .5rem; border-radius: 6px; transition: transform .15s ease, box-shadow .15s ease; cursor: default; }
.pb-outlet.pb-outlet-hover { transform: translateY(-2px); box-shadow: 0 2px 8px rgba(0,0,0,.12); }
.pb-outlet-logo { display: inline-block; height: {{if eq .Config.LogoSize "small"}}18px{{else if eq .Config.LogoSize "large"}}34px{{else}}26px{{end}}; width: auto; }
.pb-outlet-fallback { display: inline-flex; align-items: center; justify-content: center; width: {{if eq .Config.LogoSize "small"}}18px{{else if eq .Config.LogoSize "large"}}34px{{else}}26px{{end}}; height: {{if eq .Config.LogoSize "small"}}18px{{else if eq .Config.LogoSize "large"}}34px{{else}}26px{{end}}; border-radius: 50%; color: #fff; font-weight: 700; font-size: .75rem; }
.pb-outlet-name { font-size: .8125rem; font-weight: 600; white-space: nowrap; }
.pb-verified { display: inline-flex; align-items: center; gap: .25rem; font-size: .75rem; color: {{.Config.AccentColor}}; margin-top: .5rem; }
.pb-verified-mark { display: inline-flex; align-items: center; justify-content: center; width: 14px; height: 14px; border-radius: 50%; background: {{.Config.AccentColor}}; color: {{.Config.SecondaryColor}}; font-size: .625rem; font-weight: 700; }
</style>
</head>
<body>
<div class="pb-badge">
{{- if .Config.ShowOrnaments}}
<p class="pb-caption"><span class="pb-ornament"></span>As seen on {{.DisplayedSiteCount}}+ sites<span class="pb-ornament"></span></p>
{{- else}}
<p class="pb-caption">As seen on {{.DisplayedSiteCount}}+ sites</p>
{{- end}}
<p class="pb-title">{{.BadgeName}}</p>
<div class="pb-row pb-row-primary">
{{- range .PrimaryRow}}
<span class="pb-outlet">{{if .HasLogo}}<img class="pb-outlet-logo" src="{{.LogoURL}}" alt="{{.WebsiteName}}" loading="lazy">{{else}}<span class="pb-outlet-fallback" style="background:{{.FallbackColor}}">{{.FallbackInitial}}</span>{{end}}<span class="pb-outlet-name">{{.WebsiteName}}</span></span>
{{- end}}
</div>
<div class="pb-row pb-row-overflow">
{{- range .OverflowRow}}
<span class="pb-outlet">{{if .HasLogo}}<img class="pb-outlet-logo" src="{{.LogoURL}}" alt="{{.WebsiteName}}" loading="lazy">{{else}}<span class="pb-outlet-fallback" style="background:{{.FallbackColor}}">{{.FallbackInitial}}</span>{{end}}<span class="pb-outlet-name">{{.WebsiteName}}</span></span>
{{- end}}
</div>
{{- if .Config.ShowVerifiedMark}}
<p class="pb-verified"><span class="pb-verified-mark">&#10003;</span>Verified press coverage</p>
{{- end}}
</div>
<script>
(function () {
  var outlets = document.querySelectorAll(".pb-badge .pb-outlet");
  for (var index = 0; index < outlets.length; index++) {
    outlets[index].addEventListener("pointerenter", function () {
      this.classList.add("pb-outlet-hover");
    });
    outlets[index].addEventListener("pointerleave", function () {
      this.classList.remove("pb-outlet-hover");
    });
  }
})();
</script>
</body>
</html>
`
