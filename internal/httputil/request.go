package httputil

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tendant/nexus-crm/pkg/repository"
)

// URLID parses a uuid path parameter.
func URLID(r *http.Request, key string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, key))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// OrderingFromQuery reads ?order_by=field&order=asc|desc. Field whitelisting
// happens in the store.
func OrderingFromQuery(r *http.Request) repository.Ordering {
	q := r.URL.Query()
	return repository.Ordering{
		Field: strings.TrimSpace(q.Get("order_by")),
		Desc:  strings.EqualFold(q.Get("order"), "desc"),
	}
}

// Deleted writes the response for a successful delete.
func Deleted(w http.ResponseWriter) {
	JSON(w, http.StatusOK, map[string]bool{"success": true})
}
