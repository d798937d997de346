package auth

import (
	"fmt"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// UsersControllerRoutes holds the mounted paths
type UsersControllerRoutes struct {
	Collection string
	Record     string
	Activate   string
}

// UsersController is the administrative user directory surface. Listing,
// creation, updates, and deactivation are admin operations; clinicians can
// read individual records.
type UsersController struct {
	Logger       Logger
	Repo         RepositoryManager
	Routes       *UsersControllerRoutes
	ErrorHandler router.ErrorHandler
}

type UsersControllerOption func(*UsersController) *UsersController

func NewUsersController(opts ...UsersControllerOption) *UsersController {
	c := &UsersController{
		Logger: defLogger{},
		Routes: &UsersControllerRoutes{
			Collection: "/users",
			Record:     "/users/:id",
			Activate:   "/users/:id/activate",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in users controller...")
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = NewAPIErrorHandler(c.Logger).Handle
	}

	return c
}

func WithUsersRepo(repo RepositoryManager) UsersControllerOption {
	return func(c *UsersController) *UsersController {
		c.Repo = repo
		return c
	}
}

func WithUsersLogger(logger Logger) UsersControllerOption {
	return func(c *UsersController) *UsersController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithUsersErrorHandler(handler router.ErrorHandler) UsersControllerOption {
	return func(c *UsersController) *UsersController {
		c.ErrorHandler = handler
		return c
	}
}

// RegisterUsersRoutes mounts the directory endpoints. Every route sits behind
// the token guard; staffOnly admits clinicians, adminOnly does not.
func RegisterUsersRoutes(app RouteRegistrar, protected, adminOnly, staffOnly router.MiddlewareFunc, opts ...UsersControllerOption) *UsersController {
	controller := NewUsersController(opts...)

	app.Get(controller.Routes.Collection, controller.List, protected, adminOnly).
		SetName("users.list")

	app.Post(controller.Routes.Collection, controller.Create, protected, adminOnly).
		SetName("users.create")

	app.Get(controller.Routes.Record, controller.Show, protected, staffOnly).
		SetName("users.show")

	app.Put(controller.Routes.Record, controller.Update, protected, adminOnly).
		SetName("users.update")

	app.Delete(controller.Routes.Record, controller.Deactivate, protected, adminOnly).
		SetName("users.deactivate")

	app.Post(controller.Routes.Activate, controller.Activate, protected, adminOnly).
		SetName("users.activate")

	return controller
}

func (a *UsersController) List(ctx router.Context) error {
	records, err := a.Repo.Users().ListUsers(ctx.Context())
	if err != nil {
		a.Logger.Error("list users error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	out := make([]PublicUser, 0, len(records))
	for _, record := range records {
		out = append(out, record.Public())
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"users": out,
	})
}

func (a *UsersController) Create(ctx router.Context) error {
	payload := new(RegisterPayload)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, NewValidationError(map[string]string{
			"payload": "failed to parse request body",
		}))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, NewValidationError(FormatValidationErrorToMap(err)))
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
		a.Logger.Error("create user error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, map[string]any{
		"user": record.Public(),
	})
}

func (a *UsersController) Show(ctx router.Context) error {
	record, err := a.findRecord(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"user": record.Public(),
	})
}

func (a *UsersController) Update(ctx router.Context) error {
	record, err := a.findRecord(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	payload := new(UpdateUserPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, NewValidationError(map[string]string{
			"payload": "failed to parse request body",
		}))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, NewValidationError(FormatValidationErrorToMap(err)))
	}

	if payload.Name != "" {
		record.Name = payload.Name
	}

	if payload.Phone != "" {
		record.Phone = payload.Phone
	}

	if payload.Role != "" {
		role, ok := ParseRole(payload.Role)
		if !ok {
			return a.ErrorHandler(ctx, NewValidationError(map[string]string{
				"role": "must be one of ADMIN, MEDICO, PACIENTE",
			}))
		}
		record.Role = role
	}

	updated, err := a.Repo.Users().Update(ctx.Context(), record, repository.UpdateByID(record.ID.String()))
	if err != nil {
		a.Logger.Error("update user error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"user": updated.Public(),
	})
}

// Deactivate flips the active flag instead of removing the row. The guard
// rejects the account's tokens starting with the next request.
func (a *UsersController) Deactivate(ctx router.Context) error {
	return a.setActive(ctx, false)
}

func (a *UsersController) Activate(ctx router.Context) error {
	return a.setActive(ctx, true)
}

func (a *UsersController) setActive(ctx router.Context, active bool) error {
	id, err := a.recordID(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	record, err := a.Repo.Users().SetActive(ctx.Context(), id, active)
	if err != nil {
		if errors.IsNotFound(err) {
			return a.ErrorHandler(ctx, a.notFound(id.String()))
		}
		a.Logger.Error("set user active error", "error", err, "active", active)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"user": record.Public(),
	})
}

func (a *UsersController) findRecord(ctx router.Context) (*User, error) {
	id, err := a.recordID(ctx)
	if err != nil {
		return nil, err
	}

	record, err := a.Repo.Users().GetByIdentifier(ctx.Context(), id.String())
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, a.notFound(id.String())
		}
		return nil, err
	}

	return record, nil
}

func (a *UsersController) recordID(ctx router.Context) (uuid.UUID, error) {
	raw := ctx.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, NewValidationError(map[string]string{
			"id": fmt.Sprintf("%q is not a valid user id", raw),
		})
	}
	return id, nil
}

func (a *UsersController) notFound(id string) error {
	return errors.New("user not found", errors.CategoryNotFound).
		WithTextCode("USER_NOT_FOUND").
		WithCode(errors.CodeNotFound).
		WithMetadata(map[string]any{"id": id})
}
