// Package startup handles configuration loading and build metadata.
//
// Configuration is read from environment variables with a .env file
// merged in when present. Build-time variables are injected via
// ldflags and exposed via [GetBuildInfo]:
//
//	go build -ldflags "-X media-gateway/internal/startup.Version=v1.2.3 \
//	    -X media-gateway/internal/startup.Commit=abc1234 \
//	    -X media-gateway/internal/startup.Branch=main"
package startup
