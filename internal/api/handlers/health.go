package handlers

import (
	"net/http"

	"github.com/praxis-labs/lorebase/internal/api"
)

// Health reports service liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	api.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
