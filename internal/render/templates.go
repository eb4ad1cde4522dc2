package render

// ── Page layout ───────────────────────────────────────────────────────────────

const tmplPage = `
{{define "page"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>{{.Title}}</title>
<link rel="stylesheet" href="/static/dashboard.css">
</head>
<body>
<main class="p-4">
<h1>{{.Title}}</h1>
<div id="dashboard">{{template "dashboard" .}}</div>
</main>
<script src="/static/dashboard.js"></script>
</body>
</html>{{end}}`

// ── Re-renderable body ────────────────────────────────────────────────────────

const tmplDashboard = `
{{define "dashboard"}}
{{template "status" .Status}}
{{with .Panel}}
<section class="live card" id="live">
<h2>Live Data</h2>
<p><strong>Priority:</strong> {{.Priority}}</p>
<p>Bit Depth: {{.BitDepth}}</p>
<p>Predicted ROP: {{.ROP}}</p>
<p>Sticking Alerts: {{.MechSticking}}, {{.DiffSticking}}</p>
<p>Hole Cleaning Issue: {{.HoleCleaning}}</p>
<p>Mud Loss Risk: {{.MudLoss}}</p>
<p><small>{{.Timestamp}}</small></p>
</section>
{{end}}
<section class="trend">
<h2>ROP Trend</h2>
<img id="rop-chart" src="{{.ChartURL}}" alt="ROP trend" data-points="{{len .Labels}}">
</section>
<section class="history">
<h2>Recent History</h2>
<a class="btn" id="export" href="{{.ExportURL}}" target="_blank" rel="noopener">Export to CSV</a>
<table id="history">
<thead>
<tr><th>Timestamp</th><th>Bit Depth</th><th>ROP</th><th>Alerts</th></tr>
</thead>
<tbody>
{{range .Rows}}<tr><td>{{.Timestamp}}</td><td>{{.BitDepth}}</td><td>{{.ROP}}</td><td>{{.Alerts}}</td></tr>
{{end}}</tbody>
</table>
</section>
{{end}}`

// ── Connection / fetch banner ─────────────────────────────────────────────────

const tmplStatus = `
{{define "status"}}
{{if eq (print .Connection) "disconnected"}}<div class="banner err" id="conn-lost">Live feed disconnected{{if .ConnectionErr}}: {{.ConnectionErr}}{{end}}</div>{{end}}
{{if eq (print .Connection) "connecting"}}<div class="banner warn" id="conn-wait">Connecting to live feed…</div>{{end}}
{{if .LastFetchErr}}<div class="banner err" id="fetch-err">History unavailable: {{.LastFetchErr}}</div>{{end}}
{{end}}`
