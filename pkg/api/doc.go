// Package api serves the ER property panel over HTTP.
//
// Every route works on one stored diagram document:
//
//	GET    /diagrams                                   list stored IDs
//	GET    /diagrams/{id}                              the document
//	PUT    /diagrams/{id}                              store a document
//	DELETE /diagrams/{id}                              remove it
//	GET    /diagrams/{id}/svg                          rendered diagram
//	GET    /diagrams/{id}/elements/{eid}/contained     {"contained":bool}
//	GET    /diagrams/{id}/elements/{eid}/convertible   {"convertible":bool}
//	POST   /diagrams/{id}/elements/{eid}/composite     {"value":bool}
//	GET    /diagrams/{id}/containers/{cid}/children    child elements
//	POST   /diagrams/{id}/containers/{cid}/reorganize  layout result
//	POST   /diagrams/{id}/move                         {"ids":[..],"dx":..,"dy":..}
//	POST   /diagrams/{id}/delete                       {"ids":[..]}
//
// A request loads the document from the configured [store.Store], binds an
// [er.Modeler] to it and, for mutating routes, saves it back. Requests for
// the same diagram are serialized; different diagrams proceed in parallel.
//
// Errors are JSON objects {"code": ..., "message": ...} with the status
// derived from the error code: NOT_FOUND is 404, INVALID_INPUT and
// INVALID_FORMAT are 400, COMPOSITE_LOCKED and NOT_CONTAINER are 409.
package api
