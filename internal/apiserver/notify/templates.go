package notify

import (
	"html/template"

	"github.com/Masterminds/sprig/v3"
)

const dashboardTemplate = `<!DOCTYPE html>
<html><body style="font-family:-apple-system,sans-serif;background:#f5f5f5;padding:32px">
<div style="max-width:700px;margin:0 auto;background:#fff;border-radius:12px;overflow:hidden">
  <div style="background:#0d1117;padding:28px 32px">
    <h1 style="color:#f0b429;margin:0;font-size:22px">RAG Tracker</h1>
    <p style="color:#7d8590;margin:6px 0 0;font-size:14px">Weekly Project Health Dashboard &mdash; Week {{ .WeekKey }}</p>
  </div>
  <div style="padding:28px 32px">
    <div style="margin-bottom:24px">
      <span style="color:#da3633;font-weight:700">{{ len .Red }} Red</span> &middot;
      <span style="color:#d29922;font-weight:700">{{ len .Amber }} Amber</span> &middot;
      <span style="color:#3fb950;font-weight:700">{{ len .Green }} Green</span>
    </div>
    {{ if .Red }}
    <h3 style="color:#da3633;font-size:14px;margin:0 0 8px">Needs Attention</h3>
    <table style="width:100%;border-collapse:collapse;margin-bottom:20px">
      {{ range .Red }}{{ template "row" . }}{{ end }}
    </table>
    {{ end }}
    {{ if .Amber }}
    <h3 style="color:#d29922;font-size:14px;margin:0 0 8px">Under Watch</h3>
    <table style="width:100%;border-collapse:collapse;margin-bottom:20px">
      {{ range .Amber }}{{ template "row" . }}{{ end }}
    </table>
    {{ end }}
    {{ if .Green }}
    <h3 style="color:#3fb950;font-size:14px;margin:0 0 8px">On Track</h3>
    <table style="width:100%;border-collapse:collapse;margin-bottom:20px">
      {{ range .Green }}{{ template "row" . }}{{ end }}
    </table>
    {{ end }}
    {{ if .Pending }}
    <h3 style="margin:24px 0 8px;color:#888;font-size:14px">Pending Updates ({{ len .Pending }})</h3>
    <table style="width:100%;border-collapse:collapse">
      {{ range .Pending }}<tr><td style="padding:8px 12px;border-bottom:1px solid #eee;color:#999;font-size:13px">{{ . }}</td></tr>{{ end }}
    </table>
    {{ end }}
  </div>
  <div style="background:#f9f9f9;padding:16px 32px;font-size:11px;color:#999;border-top:1px solid #eee">
    Sent automatically by RAG Tracker &middot; {{ now | date "Monday, 2 January 2006" }}
  </div>
</div>
</body></html>

{{ define "row" }}
<tr>
  <td style="padding:10px 12px;border-bottom:1px solid #eee"><strong>{{ .ProjectName }}</strong></td>
  <td style="padding:10px 12px;border-bottom:1px solid #eee;color:#555;font-size:13px">{{ .PMName }}</td>
  <td style="padding:10px 12px;border-bottom:1px solid #eee;color:#555;font-size:12px">{{ .Note }}</td>
</tr>
{{ end }}`

const reminderTemplate = `<!DOCTYPE html>
<html><body style="font-family:-apple-system,sans-serif;background:#f5f5f5;padding:32px">
<div style="max-width:560px;margin:0 auto;background:#fff;border-radius:12px;overflow:hidden">
  <div style="background:#0d1117;padding:24px 28px">
    <h1 style="color:#f0b429;margin:0;font-size:20px">RAG Tracker</h1>
  </div>
  <div style="padding:28px">
    <p>Hi <strong>{{ .PMName }}</strong>,</p>
    <p style="color:#555">This is your weekly reminder to submit RAG status updates for the following {{ len .ProjectNames | plural "project" "projects" }}:</p>
    <ul style="color:#333;line-height:2">
      {{ range .ProjectNames }}<li><strong>{{ . }}</strong></li>{{ end }}
    </ul>
    <p style="color:#555">Please log in and submit your updates before end of day today.</p>
    <a href="{{ .FrontendURL }}" style="display:inline-block;margin-top:8px;padding:12px 24px;background:#f0b429;color:#0d1117;font-weight:600;border-radius:8px;text-decoration:none">Open RAG Tracker</a>
  </div>
  <div style="background:#f9f9f9;padding:14px 28px;font-size:11px;color:#999;border-top:1px solid #eee">
    You are receiving this because you are a Project Manager in RAG Tracker.
  </div>
</div>
</body></html>`

func parseTemplates() (*template.Template, *template.Template, error) {
	dashboard, err := template.New("dashboard").Funcs(sprig.HtmlFuncMap()).Parse(dashboardTemplate)
	if err != nil {
		return nil, nil, err
	}
	reminder, err := template.New("reminder").Funcs(sprig.HtmlFuncMap()).Parse(reminderTemplate)
	if err != nil {
		return nil, nil, err
	}
	return dashboard, reminder, nil
}
