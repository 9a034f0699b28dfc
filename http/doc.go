// Package http provides the HTTP API for relapse.
//
// # Routes
//
//   - POST /event/create: create an event from {"name", "process_datetime"}
//   - POST /photo/save: multipart upload of a photo, optionally linked to an event
//   - GET /event/view/{event_uuid}: list an event's photos once it is released
//   - GET /photos/view: list the caller's photos, newest first
//   - GET /health: metadata store liveness
//
// The caller identifies itself with the X-User-Id header, or a user_id form
// field or query parameter. The value is trusted as is.
//
// Every error body has the shape {"error": "...", "details": "..."} where
// details is omitted when empty. An event that has not reached its release
// time answers 201 with {"message": "photos not ready"}.
//
// # Usage
//
//	handlerCfg := http.HandlerConfig{
//	    MaxUploadSize: 20 << 20,
//	}
//	handler := http.NewHandler(&handlerCfg, service)
//	http.ListenAndServe(":5000", handler.Router())
//
// Every route is wrapped with chi's RequestID, RealIP and Recoverer
// middleware plus RequestLogger. CORS is applied when CORSConfig.Enabled is
// set.
package http
