// Package auth provides authentication and authorization for the library API.
//
// It supports two authentication modes:
//   - "none": No authentication required (default); every request acts as an
//     anonymous super admin
//   - "local": Students and admins log in by email and password and receive a
//     session cookie
//
// # Configuration
//
//	AUTH_MODE=none   # Default, no auth required
//	AUTH_MODE=local  # Requires login
//
// For local mode, additional configuration:
//
//	AUTH_SESSION_SECRET=<hex-32-bytes>  # Auto-generated if empty
//	AUTH_SESSION_LIFETIME=24h           # Session duration
//	AUTH_BCRYPT_COST=12                 # bcrypt cost factor
//	AUTH_SECURE_COOKIES=true            # HTTPS-only cookies
//	AUTH_MAX_LOGIN_ATTEMPTS=5           # Failures before lockout
//	AUTH_RATE_LIMIT_WINDOW=15m
//	AUTH_LOCKOUT_DURATION=30m
//
// # Usage
//
//	authService := auth.NewService(db, cfg.Auth)
//	authMiddleware := auth.NewMiddleware(authService, sessions, cfg.Auth)
//	router.Use(authMiddleware.Handler())
//	admin := router.Group("/api", authMiddleware.RequireAdmin())
//
// Extract the caller in handlers:
//
//	subject, _ := auth.GetSubject(c)
package auth
