package common

// AuthTokenHeaderName is the gRPC metadata key that carries the session token.
const AuthTokenHeaderName = "auth-token"

// BearerPrefix is the optional transport prefix stripped from tokens.
const BearerPrefix = "Bearer "
