package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"chatline/pkg/api/handlers"
	"chatline/pkg/auth"
	"chatline/pkg/pipeline"
)

// Handler returns the chat API: every route under /v1, behind the
// signed-identity middleware that resolves the caller's user id.
func Handler(p *pipeline.Pipeline) http.Handler {
	r := mux.NewRouter()
	v1 := r.PathPrefix("/v1").Subrouter()
	handlers.RegisterMessages(v1, p)
	return auth.RequireSignedUser(r)
}
