// Package httpapi serves the authentication endpoints of the movie-review API
// over net/http: /register, /login, /refresh-token, /logout, /health and the reference
// protected route /me.
//
// Refresh tokens travel only in an HttpOnly cookie; access tokens are returned
// in the JSON body and presented back as "Authorization: Bearer <token>".
// Error responses are {"message": "..."} and never expose internal errors.
package httpapi
