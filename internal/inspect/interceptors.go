package inspect

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	api "github.com/nasa/cFE-sub018/pkg/inspect"
)

// ContextKey type for context keys to avoid collisions
type ContextKey string

const (
	// ClientIDKey is the context key for the authenticated client ID
	ClientIDKey ContextKey = "client_id"
	// IsAdminKey is the context key for admin status
	IsAdminKey ContextKey = "is_admin"
	// ClaimsKey is the context key for JWT claims
	ClaimsKey ContextKey = "jwt_claims"
)

// devClientID identifies callers in no-auth mode
const devClientID = "dev-client"

// adminMethods change server state or write files; they always need an admin token
var adminMethods = map[string]bool{
	api.WriteMapInfoMethod: true,
}

// Authenticator checks bearer tokens on incoming calls
type Authenticator struct {
	jwtAuth *JWTAuth
	noAuth  bool // Development mode: bypass authentication
}

// NewAuthenticator creates a new authenticator
func NewAuthenticator(jwtAuth *JWTAuth, noAuth bool) *Authenticator {
	return &Authenticator{
		jwtAuth: jwtAuth,
		noAuth:  noAuth,
	}
}

// UnaryInterceptor authenticates unary calls
func (a *Authenticator) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		ctx, err := a.authenticate(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamInterceptor authenticates streaming calls
func (a *Authenticator) StreamInterceptor() grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx, err := a.authenticate(ss.Context(), info.FullMethod)
		if err != nil {
			return err
		}
		return handler(srv, &authenticatedStream{ServerStream: ss, ctx: ctx})
	}
}

// authenticate returns ctx carrying the caller's claims.
// Admin methods are NEVER bypassed, even in no-auth mode.
func (a *Authenticator) authenticate(ctx context.Context, method string) (context.Context, error) {
	admin := adminMethods[method]

	if a.noAuth && !admin {
		return withClaims(ctx, &JWTClaims{ClientID: devClientID}), nil
	}

	token := extractToken(ctx)
	if token == "" {
		return nil, status.Error(codes.Unauthenticated, "authorization metadata required")
	}
	if a.jwtAuth == nil {
		return nil, status.Error(codes.Unauthenticated, "authentication not configured")
	}

	claims, err := a.jwtAuth.ValidateToken(token)
	if err != nil {
		return nil, status.Errorf(codes.Unauthenticated, "invalid token: %v", err)
	}
	if admin && !claims.IsAdmin {
		return nil, status.Error(codes.PermissionDenied, "admin privileges required")
	}

	return withClaims(ctx, claims), nil
}

// RecoveryInterceptor converts handler panics into codes.Internal
func RecoveryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				tracer().Errorf("panic in %s: %v", info.FullMethod, r)
				err = status.Error(codes.Internal, "internal server error")
			}
		}()
		return handler(ctx, req)
	}
}

// StreamRecoveryInterceptor converts stream handler panics into codes.Internal
func StreamRecoveryInterceptor() grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		defer func() {
			if r := recover(); r != nil {
				tracer().Errorf("panic in %s: %v", info.FullMethod, r)
				err = status.Error(codes.Internal, "internal server error")
			}
		}()
		return handler(srv, ss)
	}
}

// GetClientID extracts the client ID from the call context
func GetClientID(ctx context.Context) string {
	if clientID, ok := ctx.Value(ClientIDKey).(string); ok {
		return clientID
	}
	return ""
}

// IsAdmin reports whether the caller holds an admin token
func IsAdmin(ctx context.Context) bool {
	isAdmin, _ := ctx.Value(IsAdminKey).(bool)
	return isAdmin
}

func withClaims(ctx context.Context, claims *JWTClaims) context.Context {
	ctx = context.WithValue(ctx, ClientIDKey, claims.ClientID)
	ctx = context.WithValue(ctx, IsAdminKey, claims.IsAdmin)
	return context.WithValue(ctx, ClaimsKey, claims)
}

// extractToken reads the bearer token from the authorization metadata.
// Both "Bearer token" and "token" formats are accepted.
func extractToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return ""
	}
	return strings.TrimPrefix(values[0], "Bearer ")
}

type authenticatedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authenticatedStream) Context() context.Context {
	return s.ctx
}
