package flows

import "context"

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Validate.Access != nil && s.deps.Validate.Revocations != nil
}

func (s Service) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	return RunLogin(ctx, identifier, password, s.deps.Login)
}

func (s Service) Refresh(ctx context.Context, refreshToken, accessToken string) RefreshResult {
	return RunRefresh(ctx, refreshToken, accessToken, s.deps.Refresh)
}

func (s Service) Logout(ctx context.Context, refreshToken, accessToken string) LogoutResult {
	return RunLogout(ctx, refreshToken, accessToken, s.deps.Logout)
}

func (s Service) Validate(ctx context.Context, tokenStr string) ValidateResult {
	return RunValidate(ctx, tokenStr, s.deps.Validate)
}
