// Package http exposes the spaces file operations as a JSON REST API.
//
// Every route lives under a configurable base path (by default
// /api/v1/spaces):
//
//	POST   /upload          multipart form with a "file" part and optional "folder"
//	GET    /download/{key}  streams the object as an attachment
//	GET    /metadata/{key}  object metadata
//	GET    /list?prefix=    objects under a prefix
//	GET    /exists/{key}    existence check
//	DELETE /{key}           removes the object
//	GET    /health          bucket reachability
//
// Keys are captured with a trailing wildcard, so nested keys such as
// "reports/2024/q1.pdf" route without escaping the slashes.
//
// # Responses
//
// Apart from download, every response is an APIResponse envelope:
//
//	{"success":true,"message":"file uploaded","data":{...},"timestamp":"..."}
//
// # Errors
//
// HandleError translates failures into envelopes. An oversized upload answers
// 400 with "file exceeds size limit." and the service's own errors answer 500
// with their message.
//
// Anything unexpected answers 500 with "internal server error" while the
// detail is logged. Panics are recovered by the Recoverer middleware and
// reported the same way.
//
// # Usage
//
//	handler := http.NewHandler(&http.HandlerConfig{
//	    BasePath:      "/api/v1/spaces",
//	    MaxUploadSize: 10 << 20,
//	}, service)
//	srv := &nethttp.Server{Addr: ":8080", Handler: handler.Router()}
package http
