package auth

import (
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// AuthControllerRoutes holds the mounted paths
type AuthControllerRoutes struct {
	Register    string
	Login       string
	Me          string
	Impersonate string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Auther       Authenticator
	Routes       *AuthControllerRoutes
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Register:    "/auth/register",
			Login:       "/auth/login",
			Me:          "/auth/me",
			Impersonate: "/auth/impersonate",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = NewAPIErrorHandler(c.Logger).Handle
	}

	return c
}

func WithAuthRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithAuthAuther(auther Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithAuthLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithAuthErrorHandler(handler router.ErrorHandler) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.ErrorHandler = handler
		return c
	}
}

// RouteRegistrar captures the router methods used by the controllers.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Put(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// RegisterAuthRoutes mounts the public endpoints plus the guarded /auth/me
// and the admin only impersonation endpoint.
func RegisterAuthRoutes(app RouteRegistrar, protected router.MiddlewareFunc, adminOnly router.MiddlewareFunc, opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Register, controller.RegistrationCreate).
		SetName("auth.register")

	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("auth.login")

	app.Get(controller.Routes.Me, controller.Me, protected).
		SetName("auth.me")

	app.Post(controller.Routes.Impersonate, controller.ImpersonatePost, protected, adminOnly).
		SetName("auth.impersonate")

	return controller
}

func (a *AuthController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegisterPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register user parse payload: ", "error", err)
		return a.ErrorHandler(ctx, NewValidationError(map[string]string{
			"payload": "failed to parse request body",
		}))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register user validate payload: ", "error", err)
		return a.ErrorHandler(ctx, NewValidationError(FormatValidationErrorToMap(err)))
	}

	if a.Debug {
		a.Logger.Debug("registration payload", "payload", print.MaybePrettyJSON(payload))
	}

	var record *User
	req := RegisterUserMessage{
		Name:      payload.Name,
		Email:     payload.Email,
		Phone:     payload.Phone,
		Role:      payload.Role,
		Password:  payload.Password,
		UseHashid: true,
		OnResponse: func(u *User) {
			record = u
		},
	}

	registerUser := RegisterUserHandler{repo: a.Repo}
	if err := registerUser.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("register user error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, map[string]any{
		"user": record.Public(),
	})
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: ", "error", err)
		return a.ErrorHandler(ctx, NewValidationError(map[string]string{
			"payload": "failed to parse request body",
		}))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, NewValidationError(FormatValidationErrorToMap(err)))
	}

	token, err := a.Auther.Login(ctx.Context(), payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		a.Logger.Error("Login error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	user, err := a.Repo.Users().GetByIdentifier(ctx.Context(), payload.GetIdentifier())
	if err != nil {
		a.Logger.Error("login lookup error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"token": token,
		"user":  user.Public(),
	})
}

// Me returns the actor the guard read from the directory for this request.
func (a *AuthController) Me(ctx router.Context) error {
	actor, ok := ActorFromRouterContext(ctx)
	if !ok {
		return a.ErrorHandler(ctx, ErrMissingCredential)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"user": actor,
	})
}

// ImpersonatePost mints a token for another account without its password.
// Route registration gates it to admins.
func (a *AuthController) ImpersonatePost(ctx router.Context) error {
	payload := new(ImpersonatePayload)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, NewValidationError(map[string]string{
			"payload": "failed to parse request body",
		}))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, NewValidationError(FormatValidationErrorToMap(err)))
	}

	token, err := a.Auther.Impersonate(ctx.Context(), payload.Email)
	if err != nil {
		a.Logger.Error("Impersonate authentication error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"token": token,
	})
}
