package internal

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"
)

const (
	TableUsers    = "users"
	TableMessages = "messages"
)

// RowsProvider lists the rows of one table ("users" or "messages").
type RowsProvider func(table string) ([]InspectRow, error)
type StatsProvider func() map[string]any

type PageData struct {
	Table string
	Items []InspectRow
	Stats map[string]any
	Error string
}

var inspectTemplate = template.Must(template.New("inspect").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>chat-gate inspector</title></head>
<body style="font-family: monospace">
<p><a href="?table=users">users</a> | <a href="?table=messages">messages</a></p>
<ul>{{range $k, $v := .Stats}}<li>{{$k}}: {{$v}}</li>{{end}}</ul>
{{if .Error}}<p style="color: red">{{.Error}}</p>{{end}}
<table border="1" cellpadding="4">
<tr><th>Key</th><th>Type</th><th>Time</th><th>Entity</th><th>Detail</th><th>Flags</th></tr>
{{range .Items}}<tr><td>{{.Key}}</td><td>{{.Type}}</td><td>{{.Timestamp}}</td><td>{{.EntityID}}</td><td>{{.Detail}}</td><td>{{.Flags}}</td></tr>
{{end}}</table>
</body>
</html>
`))

// NewDebugHandler serves an HTML page listing the rows of the requested table.
func NewDebugHandler(rows RowsProvider, statsProvider StatsProvider) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/inspect", func(w http.ResponseWriter, r *http.Request) {
		table := r.URL.Query().Get("table")
		if table == "" {
			table = TableUsers
		}

		data := PageData{Table: table, Stats: make(map[string]any)}
		if statsProvider != nil {
			data.Stats = statsProvider()
		}

		items, err := rows(table)
		if err != nil {
			data.Error = err.Error()
		}
		data.Items = items

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = inspectTemplate.Execute(w, data)
	})
	return mux
}

// StartDebugServer exposes the inspector on every interface. It returns the server so the
// caller can shut it down.
func StartDebugServer(log *slog.Logger, port int, rows RowsProvider, statsProvider StatsProvider) *http.Server {
	srv := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", port),
		Handler:           NewDebugHandler(rows, statsProvider),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Debug server stopped", "error", err)
		}
	}()
	return srv
}
