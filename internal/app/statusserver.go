package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// nodeStatus is the JSON shape served by the /status endpoint.
type nodeStatus struct {
	ID              string `json:"id"`
	State           string `json:"state"`
	Error           string `json:"error,omitempty"`
	LastEvaluatedAt string `json:"last_evaluated_at,omitempty"`
}

// statusHandler serves the per-node statuses as JSON.
func (a *App) statusHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Status endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)

	nodes := a.repo.All()
	out := struct {
		Sweeping bool         `json:"sweeping"`
		Nodes    []nodeStatus `json:"nodes"`
	}{
		Sweeping: a.repo.Sweeping(),
		Nodes:    make([]nodeStatus, 0, len(nodes)),
	}
	for _, n := range nodes {
		st := n.Status()
		ns := nodeStatus{ID: string(n.ID()), State: st.State().String()}
		if st.Err() != nil {
			ns.Error = st.Err().Error()
		}
		if at := n.LastEvaluatedAt(); !at.IsZero() {
			ns.LastEvaluatedAt = at.Format(time.RFC3339)
		}
		out.Nodes = append(out.Nodes, ns)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		a.logger.Error("Failed to encode status response", "error", err)
	}
}

// healthHandler returns 200 only while every precondition is satisfied.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	if unsatisfied := a.repo.Unsatisfied(); len(unsatisfied) > 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintf(w, "UNSATISFIED %d\n", len(unsatisfied))
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// startStatusServer initializes and runs the status HTTP server.
func (a *App) startStatusServer(port int) {
	a.logger.Debug("Configuring status server.")
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.HandleFunc("/status", a.statusHandler)

	addr := fmt.Sprintf(":%d", port)

	go func() {
		a.logger.Info("🩺 Status server starting", "address", fmt.Sprintf("http://localhost%s/status", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			a.logger.Error("Status server failed", "error", err)
		}
	}()
}
