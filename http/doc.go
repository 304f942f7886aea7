// Package http provides a small HTTP gateway over bucketry storage.
//
// The gateway addresses objects by their stored name, split across the URL
// path as /{scheme}/{bucket}/{key...}:
//
//   - GET redirects (302) to a signed or public object URL. Query parameters:
//     expires (seconds) overrides the signed URL lifetime, version selects an
//     object version, list switches to a directory listing response.
//   - HEAD reports object or directory existence with 200/404.
//   - PUT uploads the request body through the storage pipeline and returns
//     the final stored name, which may differ from the requested one when
//     overwrites are disabled.
//   - DELETE removes the object.
//
// Errors map onto status codes by kind: unknown scheme or malformed name is
// 400, read-only refusal is 403, missing object is 404, and a failing
// backend is 502.
//
// # Usage
//
//	handler := http.NewHandler(&http.HandlerConfig{}, storage)
//	http.ListenAndServe(":5708", handler.Router())
//
// The service parameter must implement the Service interface; *bucketry.Storage
// does.
package http
