package render

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Lunch Menu</title>
    <style>
        * {
            box-sizing: border-box;
        }
        body {
            font-family: 'Roboto Condensed', -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            margin: 0;
            padding: 10px 15px;
            background-color: transparent;
            color: #fff;
            line-height: 1.5;
            font-size: 14px;
        }
        .timestamp {
            font-size: 11px;
            opacity: 0.5;
            text-align: center;
            margin-bottom: 12px;
            font-weight: 300;
            letter-spacing: 0.5px;
        }
        .menu-section {
            margin-bottom: 20px;
            padding: 0;
        }
        .menu-section:last-child {
            margin-bottom: 0;
        }
        .menu-section h2 {
            color: #fff;
            margin: 0 0 8px 0;
            font-size: 15px;
            font-weight: 400;
            text-transform: uppercase;
            letter-spacing: 1px;
            opacity: 0.9;
            border-bottom: 1px solid rgba(255, 255, 255, 0.15);
            padding-bottom: 6px;
        }
        .menu-content {
            font-size: 13px;
            color: rgba(255, 255, 255, 0.85);
            line-height: 1.6;
            font-weight: 300;
        }
        .menu-item {
            margin-bottom: 6px;
            padding-left: 0;
        }
        .menu-item:last-child {
            margin-bottom: 0;
        }
        .no-content {
            text-align: center;
            color: rgba(255, 255, 255, 0.6);
            font-style: italic;
            padding: 20px;
            font-size: 13px;
        }
    </style>
</head>
<body>
    <div class="timestamp">Updated: {{.Timestamp}}</div>
{{- if .Placeholder}}
    <div class="no-content">{{.Placeholder}}</div>
{{- end}}
{{- range .Sections}}
    <div class="menu-section">
        <h2>{{.Name}}</h2>
        <div class="menu-content">{{range .Items}}<div class="menu-item">{{.}}</div>{{end}}</div>
    </div>
{{- end}}
</body>
</html>
`
