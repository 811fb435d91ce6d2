package handlers

import "net/http"

// ListStyles returns the fixed preset catalog, custom entry included, in
// catalog order.
func (a *App) ListStyles(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"styles": a.Styles.List()})
}
