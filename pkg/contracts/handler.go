package contracts

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// Handler registers resource routes on the document router.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// MuxHandler registers fixed operational routes that sit beside the router.
type MuxHandler interface {
	RegisterRoutes(*http.ServeMux)
}
