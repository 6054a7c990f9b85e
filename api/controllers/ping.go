package controllers

import (
	"net/http"

	"github.com/atelierhq/atelier-backend/api/responses"
)

func Ping() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}
