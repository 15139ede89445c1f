package handler

import (
	"net/http"
)

type HealthResponse struct {
	OK bool `json:"ok"`
}

func Health(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, HealthResponse{
		OK: true,
	})
}
