package common

// AccessTokenHeaderName is the gRPC metadata key that may carry a raw access
// token when the authorization header is not used.
const AccessTokenHeaderName = "access_token"

// AuthorizationHeaderName carries "Bearer <token>" on HTTP and gRPC requests.
const AuthorizationHeaderName = "authorization"

// TokenTypeBearer is the token_type reported with every issued access token.
const TokenTypeBearer = "bearer"
