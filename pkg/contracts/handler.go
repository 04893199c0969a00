package contracts

import (
	"github.com/julienschmidt/httprouter"
)

// Handler is implemented by each service's HTTP surface so the shared app
// bootstrap can mount it.
type Handler interface {
	RegisterRoutes(router *httprouter.Router)
}
