package http

import "net/http"

func notFound(w http.ResponseWriter, _ *http.Request) {
	WriteText(w, http.StatusNotFound, "Not Found")
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	WriteText(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}
